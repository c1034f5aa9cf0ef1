package volumeclient

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client issues blob-level requests to volume servers on behalf of the
// master. A single Client is shared across all requests; its
// http.Transport pools connections per volume host.
type Client struct {
	http *http.Client
}

// New returns a Client whose transport keeps up to maxIdlePerHost idle
// connections open to each volume, so a busy roster of volumes doesn't
// repeatedly pay TCP/TLS setup cost.
func New(maxIdlePerHost int) *Client {
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = 100
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = maxIdlePerHost

	return &Client{
		http: &http.Client{
			Transport: transport,
			// Volume PUTs can carry blobs up to 1 GiB; don't impose a
			// blanket request timeout here. Callers bound individual
			// requests via context.
		},
	}
}

// Put streams body (length bytes, matching the given hex MD5 digest) to
// the volume at path. body is never buffered in full: it is read
// directly into the outbound request.
func (c *Client) Put(ctx context.Context, volume, path string, body io.Reader, length int64, hexMD5 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, "http://"+volume+path, body)
	if err != nil {
		return fmt.Errorf("volumeclient: build PUT request: %w", err)
	}
	req.ContentLength = length
	if hexMD5 != "" {
		req.Header.Set("Content-MD5", toBase64MD5(hexMD5))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("volumeclient: PUT %s%s: %w", volume, path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("volumeclient: PUT %s%s: unexpected status %s", volume, path, resp.Status)
	}
	return nil
}

// Delete removes the blob at path on volume. A 404 is treated as
// success: the end state (blob absent) already holds.
func (c *Client) Delete(ctx context.Context, volume, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, "http://"+volume+path, nil)
	if err != nil {
		return fmt.Errorf("volumeclient: build DELETE request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("volumeclient: DELETE %s%s: %w", volume, path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("volumeclient: DELETE %s%s: unexpected status %s", volume, path, resp.Status)
	}
	return nil
}

// Get opens a streaming read of the blob at path on volume, used to
// backfill a replica from the primary. The caller owns and must close
// the returned body.
func (c *Client) Get(ctx context.Context, volume, path string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+volume+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("volumeclient: build GET request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("volumeclient: GET %s%s: %w", volume, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer drainAndClose(resp.Body)
		return nil, 0, fmt.Errorf("volumeclient: GET %s%s: unexpected status %s", volume, path, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

func toBase64MD5(hexDigest string) string {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DefaultTimeout bounds volume-to-volume replica copies, which are
// internal traffic rather than user-facing requests.
const DefaultTimeout = 5 * time.Minute
