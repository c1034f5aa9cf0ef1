// Package volumeclient is the HTTP client the master uses to talk to
// stateless volume servers: streaming PUT of blob bodies, DELETE, and
// the replica-copy GET used to backfill a replica from the primary.
//
// Bodies are never buffered in full: requests stream directly from the
// inbound client connection (or from another volume's response body) to
// the outbound request, bounded only by the advertised Content-Length.
// The underlying http.Transport caps idle connections per host so a
// volume roster with many members doesn't exhaust file descriptors.
package volumeclient
