package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"solarview/internal/clock"
	"solarview/internal/logging"
	"solarview/internal/sim"
	"solarview/internal/telemetry"
)

// Viewer is what the admin API drives.
type Viewer interface {
	sim.Controls
	LastFrame() telemetry.PlacementFrame
}

type Server struct {
	Viewer  Viewer
	metrics http.Handler
	logger  *slog.Logger
	tpl     *template.Template
}

//go:embed templates/index.html
var content embed.FS

// NewServer builds the admin API over v. A nil metrics handler leaves
// /metrics unregistered.
func NewServer(v Viewer, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"ts": clock.FormatTimestamp,
	}).ParseFS(content, "templates/index.html"))
	return &Server{Viewer: v, metrics: metrics, logger: logger, tpl: tpl}
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /placements", s.handlePlacements)
	mux.HandleFunc("POST /realtime", s.handleRealtime)
	mux.HandleFunc("POST /fast", s.handleFast)
	mux.HandleFunc("POST /jump", s.handleJump)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return logging.Middleware(s.logger, "admin")(mux)
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		State sim.ViewerState
		Frame telemetry.PlacementFrame
	}{
		State: s.Viewer.State(),
		Frame: s.Viewer.LastFrame(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Viewer.State())
}

func (s *Server) handlePlacements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Viewer.LastFrame())
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	s.Viewer.SetRealtime()
	writeJSON(w, http.StatusOK, s.Viewer.State())
}

func (s *Server) handleFast(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("rate")
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "rate must be a number of days per second")
		return
	}
	if err := s.Viewer.SetFast(rate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Viewer.State())
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("t")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "query parameter t is required")
		return
	}
	if _, err := s.Viewer.JumpTo(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Viewer.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Viewer.Refresh()
	writeJSON(w, http.StatusAccepted, s.Viewer.State())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
