package master

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dreamware/minikv/internal/index"
	"github.com/dreamware/minikv/internal/metrics"
	"github.com/dreamware/minikv/internal/placement"
	"github.com/dreamware/minikv/internal/record"
	"github.com/dreamware/minikv/internal/volumeclient"
)

// handlePut implements PUT /<key>.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	s.cfg.Locks.WithLock(key, func() {
		s.doPut(w, r, key)
	})
}

func (s *Server) doPut(w http.ResponseWriter, r *http.Request, key string) {
	if existing, err := s.getRecordAnyState(key); err != nil {
		if err != errRecordAbsent {
			s.log.Error().Err(err).Str("key", key).Msg("index read failed on PUT")
			http.Error(w, "index error", http.StatusInternalServerError)
			return
		}
	} else {
		// A live record blocks an overwrite outright. A SOFT-deleted
		// record also blocks it: this master's policy is that a PUT
		// never silently resurrects an unlinked key, only an explicit
		// DELETE clears the way for a new write.
		if existing.Deleted == record.NO || existing.Deleted == record.SOFT {
			http.Error(w, "key exists", http.StatusForbidden)
			return
		}
	}

	if r.ContentLength < 0 {
		http.Error(w, "Content-Length required", http.StatusLengthRequired)
		return
	}

	volumes, err := placement.Place(key, s.cfg.Volumes, s.cfg.Replicas)
	if err != nil {
		s.log.Error().Err(err).Msg("placement failed")
		http.Error(w, "placement error", http.StatusInternalServerError)
		return
	}
	path := placement.DerivePath(key, s.cfg.Subvolumes)

	hasher := md5.New()
	tee := io.TeeReader(r.Body, hasher)
	if err := s.cfg.Blobs.Put(r.Context(), volumes[0], path, tee, r.ContentLength, ""); err != nil {
		metrics.VolumeErrorsTotal.WithLabelValues("put").Inc()
		s.log.Error().Err(err).Str("volume", volumes[0]).Msg("primary PUT failed")
		http.Error(w, "upstream write failed", http.StatusInternalServerError)
		return
	}
	hexHash := hex.EncodeToString(hasher.Sum(nil))

	replicaCtx, cancel := context.WithTimeout(r.Context(), volumeclient.DefaultTimeout)
	defer cancel()
	replicationStart := time.Now()

	written := []string{volumes[0]}
	for _, v := range volumes[1:] {
		body, length, err := s.cfg.Blobs.Get(replicaCtx, volumes[0], path)
		if err != nil {
			metrics.VolumeErrorsTotal.WithLabelValues("get").Inc()
			s.rollback(r, written, path)
			s.log.Error().Err(err).Msg("replica copy source read failed")
			http.Error(w, "replication failed", http.StatusInternalServerError)
			return
		}
		err = s.cfg.Blobs.Put(replicaCtx, v, path, body, length, hexHash)
		_ = body.Close()
		if err != nil {
			metrics.VolumeErrorsTotal.WithLabelValues("put").Inc()
			s.rollback(r, written, path)
			s.log.Error().Err(err).Str("volume", v).Msg("replica PUT failed")
			http.Error(w, "replication failed", http.StatusInternalServerError)
			return
		}
		written = append(written, v)
	}
	if len(volumes) > 1 {
		metrics.ReplicationLagSeconds.Observe(time.Since(replicationStart).Seconds())
	}

	rec := record.Record{Hash: hexHash, Volumes: volumes, Deleted: record.NO}
	encoded, err := record.Encode(rec)
	if err != nil {
		s.rollback(r, written, path)
		s.log.Error().Err(err).Msg("record encode failed")
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if err := s.cfg.Index.Put([]byte(key), encoded); err != nil {
		s.rollback(r, written, path)
		s.log.Error().Err(err).Str("key", key).Msg("index write failed")
		http.Error(w, "index error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-MD5", hexHash)
	w.WriteHeader(http.StatusCreated)
}

// rollback best-effort deletes every volume copy already written, used
// when a later step of a PUT fails after some volumes succeeded.
func (s *Server) rollback(r *http.Request, volumes []string, path string) {
	for _, v := range volumes {
		if err := s.cfg.Blobs.Delete(r.Context(), v, path); err != nil {
			metrics.VolumeErrorsTotal.WithLabelValues("delete").Inc()
			s.log.Warn().Err(err).Str("volume", v).Str("path", path).Msg("rollback delete failed")
		}
	}
}

// handleGet implements GET/HEAD /<key>.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	rec, err := s.getRecord(key)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	path := placement.DerivePath(key, s.cfg.Subvolumes)
	w.Header().Set("Location", "http://"+rec.Volumes[0]+path)
	w.Header().Set("Content-MD5", rec.Hash)
	w.WriteHeader(http.StatusFound)
}

// handleDelete implements DELETE /<key>.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	s.cfg.Locks.WithLock(key, func() {
		s.doDelete(w, r, key)
	})
}

func (s *Server) doDelete(w http.ResponseWriter, r *http.Request, key string) {
	val, err := s.cfg.Index.Get([]byte(key))
	if err == index.ErrNotFound {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("index read failed on DELETE")
		http.Error(w, "index error", http.StatusInternalServerError)
		return
	}
	rec, err := record.Decode(val)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("corrupt record on DELETE")
		http.Error(w, "corrupt record", http.StatusInternalServerError)
		return
	}

	path := placement.DerivePath(key, s.cfg.Subvolumes)
	for _, v := range rec.Volumes {
		if err := s.cfg.Blobs.Delete(r.Context(), v, path); err != nil {
			metrics.VolumeErrorsTotal.WithLabelValues("delete").Inc()
			s.log.Error().Err(err).Str("volume", v).Msg("DELETE failed, record retained")
			http.Error(w, "remote delete failed", http.StatusInternalServerError)
			return
		}
	}

	if err := s.cfg.Index.Delete([]byte(key)); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("index delete failed")
		http.Error(w, "index error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUnlink implements UNLINK /<key>.
func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	s.cfg.Locks.WithLock(key, func() {
		s.doUnlink(w, key)
	})
}

func (s *Server) doUnlink(w http.ResponseWriter, key string) {
	val, err := s.cfg.Index.Get([]byte(key))
	if err == index.ErrNotFound {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("index read failed on UNLINK")
		http.Error(w, "index error", http.StatusInternalServerError)
		return
	}
	rec, err := record.Decode(val)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("corrupt record on UNLINK")
		http.Error(w, "corrupt record", http.StatusInternalServerError)
		return
	}
	if rec.Deleted != record.NO {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	rec.Deleted = record.SOFT
	encoded, err := record.Encode(rec)
	if err != nil {
		s.log.Error().Err(err).Msg("record encode failed on UNLINK")
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if err := s.cfg.Index.Put([]byte(key), encoded); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("index write failed on UNLINK")
		http.Error(w, "index error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleList implements GET /<prefix>?list[&start=][&limit=].
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := []byte(r.URL.Path)
	start := []byte(r.URL.Query().Get("start"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	count := 0
	err := s.cfg.Index.IterPrefix(prefix, start, 0, func(k, v []byte) bool {
		rec, err := record.Decode(v)
		if err != nil {
			s.log.Error().Err(err).Str("key", string(k)).Msg("corrupt record in listing")
			return true
		}
		if rec.Deleted != record.NO {
			return true
		}
		fmt.Fprintf(w, "%s\n", k)
		count++
		return limit <= 0 || count < limit
	})
	if err != nil {
		s.log.Error().Err(err).Msg("listing failed")
	}
}

// handleUnlinkedList implements GET /?unlinked.
func (s *Server) handleUnlinkedList(w http.ResponseWriter, r *http.Request) {
	err := s.cfg.Index.IterAll(func(k, v []byte) bool {
		rec, err := record.Decode(v)
		if err != nil {
			s.log.Error().Err(err).Str("key", string(k)).Msg("corrupt record in unlinked listing")
			return true
		}
		if rec.Deleted == record.SOFT {
			fmt.Fprintf(w, "%s\n", k)
		}
		return true
	})
	if err != nil {
		s.log.Error().Err(err).Msg("unlinked listing failed")
	}
}

// statResponse is the JSON body of the stat introspection endpoint.
type statResponse struct {
	Key     string   `json:"key"`
	Hash    string   `json:"hash"`
	Volumes []string `json:"volumes"`
	Deleted string   `json:"deleted"`
}

// handleStat implements GET /<key>?stat, a supplemental introspection
// endpoint returning record metadata as JSON without redirecting.
func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	rec, err := s.getRecordAnyState(key)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, statResponse{
		Key:     key,
		Hash:    rec.Hash,
		Volumes: rec.Volumes,
		Deleted: rec.Deleted.String(),
	})
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errRecordAbsent marks "no record at this key", distinct from any
// index or codec failure, so callers can branch without string checks.
var errRecordAbsent = fmt.Errorf("master: no record at key")

// getRecord returns the live (tag NO) record at key, or errRecordAbsent
// if the key is missing or not live.
func (s *Server) getRecord(key string) (record.Record, error) {
	rec, err := s.getRecordAnyState(key)
	if err != nil {
		return record.Record{}, err
	}
	if rec.Deleted != record.NO {
		return record.Record{}, errRecordAbsent
	}
	return rec, nil
}

// getRecordAnyState returns the decoded record at key regardless of its
// deleted tag, or errRecordAbsent if the key is missing.
func (s *Server) getRecordAnyState(key string) (record.Record, error) {
	val, err := s.cfg.Index.Get([]byte(key))
	if err == index.ErrNotFound {
		return record.Record{}, errRecordAbsent
	}
	if err != nil {
		return record.Record{}, err
	}
	return record.Decode(val)
}
