package positionsvc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"solarview/internal/clock"
	"solarview/internal/logging"
)

// Response is the body of a successful position query.
type Response struct {
	T         string            `json:"t"`
	Units     string            `json:"units"`
	Frame     string            `json:"frame"`
	Positions map[string]Vector `json:"positions"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	model      *Model
	logger     *slog.Logger
}

// NewServer creates a position server listening on addr.
func NewServer(addr string, model *Model, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{model: model, logger: logger}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           logging.Middleware(logger, "positionsvc")(s.Handler()),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("position service listening", "addr", s.httpServer.Addr, "bodies", len(s.model.orbits))
	return s.httpServer.ListenAndServe()
}

// Handler returns the route table without middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "query parameter t is required"})
		return
	}
	t, err := clock.ParseTimestamp(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{
		T:         raw,
		Units:     "AU",
		Frame:     "heliocentric",
		Positions: s.model.Positions(t),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
