package master

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dreamware/minikv/internal/index"
	"github.com/dreamware/minikv/internal/keylock"
	"github.com/dreamware/minikv/internal/metrics"
	"github.com/dreamware/minikv/internal/mlog"
	"github.com/dreamware/minikv/internal/volumeclient"
)

// Config bundles every collaborator a handler needs. It is built once
// at startup and never mutated afterward.
type Config struct {
	Index      *index.Store
	Locks      *keylock.Table
	Volumes    []string
	Replicas   int
	Subvolumes int
	Blobs      *volumeclient.Client
}

// Server is the master's HTTP request handler.
type Server struct {
	cfg          Config
	log          zerolog.Logger
	http         *http.Server
	health       *VolumeHealthMonitor
	keyCountStop context.CancelFunc
}

// NewServer returns a Server ready to have its routes registered.
func NewServer(cfg Config) *Server {
	return &Server{
		cfg:    cfg,
		log:    mlog.WithComponent("master"),
		health: NewVolumeHealthMonitor(cfg.Volumes, 5*time.Second),
	}
}

// RegisterRoutes wires the master's handlers onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/volumes/health", s.handleVolumesHealth)
	mux.HandleFunc("/", s.handleRoot)
}

// ListenAndServe starts the HTTP server on addr and blocks until it
// exits via Shutdown or an unrecoverable listener error.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// PUT bodies can stream for as long as a 1 GiB upload takes;
		// no blanket ReadTimeout/WriteTimeout here.
	}

	go s.health.Start(context.Background())

	keyCountCtx, cancel := context.WithCancel(context.Background())
	s.keyCountStop = cancel
	go s.runKeyCountLoop(keyCountCtx)

	s.log.Info().Str("addr", addr).Msg("master listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the listener started by ListenAndServe, the
// background volume health monitor, and the key-count scan loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Stop()
	if s.keyCountStop != nil {
		s.keyCountStop()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleVolumesHealth reports the last-observed health of every
// configured volume, for operator visibility. Placement itself never
// consults this: it always ranks over the full configured roster.
func (s *Server) handleVolumesHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Volumes []VolumeHealth `json:"volumes"`
	}{Volumes: s.health.Snapshot()})
}

// handleRoot dispatches every non-admin request by query parameter and
// then by HTTP method, mirroring the single-handler shape of the
// protocol this master implements.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	switch {
	case r.URL.Path == "/" && r.URL.Query().Has("unlinked"):
		s.handleUnlinkedList(sw, r)
	case r.URL.Query().Has("list"):
		s.handleList(sw, r)
	case r.URL.Query().Has("stat"):
		s.handleStat(sw, r)
	default:
		switch r.Method {
		case http.MethodPut:
			s.handlePut(sw, r)
		case http.MethodGet, http.MethodHead:
			s.handleGet(sw, r)
		case http.MethodDelete:
			s.handleDelete(sw, r)
		case "UNLINK":
			s.handleUnlink(sw, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, PUT, DELETE, UNLINK")
			http.Error(sw, "method not allowed", http.StatusMethodNotAllowed)
			sw.status = http.StatusMethodNotAllowed
		}
	}

	metrics.ObserveRequest(r.Method, metrics.OutcomeClass(sw.status), start)
}

// statusWriter records the status code ultimately written, so the
// dispatcher can feed it to metrics without every handler plumbing it
// back out explicitly.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
