// Package store keeps the latest run outcome in memory so watch mode can
// serve it from the status endpoint.
package store

import (
	"sync"

	"github.com/gipity/assetgen/internal/domain"
)

type RunStore struct {
	mu     sync.RWMutex
	latest *domain.RunReport
	runs   int
}

func NewRunStore() *RunStore {
	return &RunStore{}
}

// SetLatest records a finished run and bumps the run counter.
func (s *RunStore) SetLatest(report domain.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := report
	s.latest = &r
	s.runs++
}

// Latest returns the most recent report. The second return is false until
// the first run completes.
func (s *RunStore) Latest() (domain.RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return domain.RunReport{}, false
	}
	return *s.latest, true
}

// Runs counts completed runs since process start.
func (s *RunStore) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}
