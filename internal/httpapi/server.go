package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
	apimw "github.com/hamed0406/netwatch/internal/httpapi/middleware"
	"github.com/hamed0406/netwatch/internal/report"
)

type Server struct {
	Logger  *zap.Logger
	Live    *Live
	Targets []domain.Target
	Report  report.Options
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewServer(l *zap.Logger, live *Live, targets []domain.Target, opts report.Options, metrics http.Handler) *Server {
	return &Server{Logger: l, Live: live, Targets: targets, Report: opts, Metrics: metrics}
}

// Router builds the HTTP surface. reqPerMin <= 0 disables rate limiting.
func (s *Server) Router(reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(apimw.RateLimit(reqPerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/", s.handleIndex)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/targets", s.handleTargets)
	r.Get("/ws", s.Live.serveWS)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rep, view, _ := s.Live.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Write(w, rep, view, s.Report); err != nil {
		s.Logger.Warn("render_index_failed", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rep, _, ok := s.Live.Snapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no cycle completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type seriesPayload struct {
	Target  domain.Target         `json:"target"`
	Entries []domain.HistoryEntry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	_, view, _ := s.Live.Snapshot()

	if raw := r.URL.Query().Get("target"); raw != "" {
		t := domain.Normalize(raw)
		if !s.known(t) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown target"})
			return
		}
		writeJSON(w, http.StatusOK, seriesPayload{Target: t, Entries: nonNil(view.SeriesFor(t))})
		return
	}

	out := make([]seriesPayload, 0, len(s.Targets))
	for _, t := range s.Targets {
		out = append(out, seriesPayload{Target: t, Entries: nonNil(view.SeriesFor(t))})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	out := s.Targets
	if out == nil {
		out = []domain.Target{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) known(t domain.Target) bool {
	for _, x := range s.Targets {
		if x == t {
			return true
		}
	}
	return false
}

func nonNil(e []domain.HistoryEntry) []domain.HistoryEntry {
	if e == nil {
		return []domain.HistoryEntry{}
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
