// Command minikv-volume is a minimal reference implementation of the
// stateless volume server the master delegates blob storage to: plain
// PUT/GET/HEAD/DELETE over a local directory tree, with byte-range and
// conditional GET handled by the standard library's file server
// primitives. Production deployments may use any off-the-shelf HTTP
// file server in its place; this binary exists so the system can be
// exercised end-to-end without one.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/minikv/internal/mlog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "minikv-volume",
	Short: "reference stateless blob volume server",
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("data-dir", "", "directory to store blobs under (required unless --mem)")
	flags.Bool("mem", false, "serve blobs from an in-memory store instead of --data-dir; data does not survive a restart")
	flags.Int("port", 3500, "listener port")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "emit structured JSON logs instead of console output")
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	logLevel, _ := flags.GetString("log-level")
	logJSON, _ := flags.GetBool("log-json")
	mlog.Init(mlog.Config{Level: mlog.Level(logLevel), JSONOutput: logJSON})
	log := mlog.WithComponent("minikv-volume")

	mem, _ := flags.GetBool("mem")
	dataDir, _ := flags.GetString("data-dir")
	port, _ := flags.GetInt("port")

	var handler http.Handler
	if mem {
		handler = newMemVolume()
	} else {
		if dataDir == "" {
			return fmt.Errorf("minikv-volume: --data-dir is required unless --mem is set")
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("minikv-volume: create data dir: %w", err)
		}
		handler = &volume{root: dataDir}
	}

	addr := ":" + strconv.Itoa(port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Bool("mem", mem).Str("dataDir", dataDir).Msg("volume listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("minikv-volume: listen: %w", err)
	case <-stop:
		log.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// volume is a stateless blob store: a request's URL path maps directly
// to a file path under root. Directories are created on demand by PUT.
type volume struct {
	root string
}

func (v *volume) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		v.serveHealth(w, r)
		return
	}

	path, err := v.resolve(r.URL.Path)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		v.handlePut(w, r, path)
	case http.MethodGet, http.MethodHead:
		v.handleGet(w, r, path)
	case http.MethodDelete:
		v.handleDelete(w, path)
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (v *volume) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// resolve maps a request path to a filesystem path rooted at v.root,
// rejecting any attempt to escape root via ".." segments.
func (v *volume) resolve(urlPath string) (string, error) {
	clean := filepath.Clean("/" + urlPath)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("path escapes root")
	}
	return filepath.Join(v.root, clean), nil
}

func (v *volume) handlePut(w http.ResponseWriter, r *http.Request, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		http.Error(w, "mkdir failed", http.StatusInternalServerError)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, r.Body); err != nil {
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (v *volume) handleGet(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (v *volume) handleDelete(w http.ResponseWriter, path string) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
