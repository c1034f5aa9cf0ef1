package master

import (
	"context"
	"time"

	"github.com/dreamware/minikv/internal/metrics"
	"github.com/dreamware/minikv/internal/record"
)

// keyCountInterval is how often the live-key gauge is refreshed by
// scanning the index. A full scan is O(n), so this stays coarse-grained
// rather than running on every request.
const keyCountInterval = 30 * time.Second

// runKeyCountLoop periodically recomputes metrics.KeysTracked by
// scanning the index for records that are still live (tag NO). It
// blocks until ctx is canceled.
func (s *Server) runKeyCountLoop(ctx context.Context) {
	ticker := time.NewTicker(keyCountInterval)
	defer ticker.Stop()

	s.updateKeyCount()
	for {
		select {
		case <-ticker.C:
			s.updateKeyCount()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) updateKeyCount() {
	var live float64
	err := s.cfg.Index.IterAll(func(_, v []byte) bool {
		rec, err := record.Decode(v)
		if err == nil && rec.Deleted == record.NO {
			live++
		}
		return true
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("key count scan failed")
		return
	}
	metrics.KeysTracked.Set(live)
}
