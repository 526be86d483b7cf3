// Package httpapi exposes scan results and history over a small read-only
// HTTP surface, for scraping and for headless hosts where the dashboard
// never runs.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/metrics"
)

const defaultHistoryLimit = 60

// Server serves the read-only API over the engine's published results.
type Server struct {
	engine *engine.Engine
	store  *history.Store
	meter  *metrics.Metrics
	log    zerolog.Logger
}

// NewServer wires the API against an engine. store may be nil; history
// endpoints then answer 404.
func NewServer(eng *engine.Engine, store *history.Store, meter *metrics.Metrics, log zerolog.Logger) *Server {
	return &Server{engine: eng, store: store, meter: meter, log: log}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/v1/disks", s.handleDisks)
	r.Get("/api/v1/disks/{serial}/history", s.handleHistory)
	r.Method(http.MethodGet, "/metrics", s.meter.Handler())

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains for up to
// five seconds.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("http api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	results := s.engine.Results()
	if results == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     results.Overall.String(),
		"devices":    len(results.Devices),
		"updated_at": results.UpdatedAt,
	})
}

func (s *Server) handleDisks(w http.ResponseWriter, r *http.Request) {
	results := s.engine.Results()
	if results == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "no scan results yet"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// historySample is the wire form of one history row. IOLoad stays null for
// rows written before the column existed.
type historySample struct {
	Timestamp    time.Time `json:"timestamp"`
	Reallocated  int64     `json:"rsc"`
	ReadErrors   int64     `json:"read_err"`
	PowerOnHours int64     `json:"power_on_hours"`
	Pending      int64     `json:"pending"`
	IOLoad       *float64  `json:"io_load"`
	WriteErrors  int64     `json:"write_err"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "history disabled"})
		return
	}

	serial := chi.URLParam(r, "serial")
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	samples, err := s.store.Recent(r.Context(), serial, limit)
	if err != nil {
		s.log.Error().Str("serial", serial).Err(err).Msg("history query")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "history query failed"})
		return
	}
	if len(samples) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no history for serial"})
		return
	}

	out := make([]historySample, 0, len(samples))
	for _, smp := range samples {
		hs := historySample{
			Timestamp:    smp.Timestamp,
			Reallocated:  smp.Reallocated,
			ReadErrors:   smp.ReadErrors,
			PowerOnHours: smp.PowerOnHours,
			Pending:      smp.Pending,
			WriteErrors:  smp.WriteErrors,
		}
		if smp.IOLoad.Valid {
			load := smp.IOLoad.Float64
			hs.IOLoad = &load
		}
		out = append(out, hs)
	}
	writeJSON(w, http.StatusOK, map[string]any{"serial": serial, "samples": out})
}

// accessLog logs one line per request at debug level.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(started)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
