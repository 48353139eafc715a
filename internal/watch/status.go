package watch

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gipity/assetgen/internal/domain"
	"github.com/gipity/assetgen/internal/store"
)

// StatusServer exposes health, latest-run, and metrics endpoints while
// watch mode runs.
type StatusServer struct {
	logger  zerolog.Logger
	runs    *store.RunStore
	metrics http.Handler
	mux     *http.ServeMux
}

func NewStatusServer(logger zerolog.Logger, runs *store.RunStore, metrics http.Handler) *StatusServer {
	s := &StatusServer{
		logger:  logger,
		runs:    runs,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *StatusServer) Handler() http.Handler {
	return s.mux
}

func (s *StatusServer) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Runs   int               `json:"runs"`
	Latest *domain.RunReport `json:"latest,omitempty"`
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Runs: s.runs.Runs()}
	if latest, ok := s.runs.Latest(); ok {
		resp.Latest = &latest
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
