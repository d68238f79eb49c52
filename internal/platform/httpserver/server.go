// Package httpserver wires the rule engine's HTTP debug surface: a
// single bounded context's routes behind one http.Server.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	httpadapter "ruleengine/contexts/rule-engine/adapters/http"
	_ "ruleengine/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	httpServer *http.Server
	rules      httpadapter.Handler
}

func NewServer(addr string, rules httpadapter.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		rules:  rules,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.mux}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	s.mux.HandleFunc("GET /cells/{cell}/rules", s.handleGetRules)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	cellID := r.PathValue("cell")
	if cellID == "" {
		writeError(w, http.StatusBadRequest, "missing_cell", "cell path segment is required")
		return
	}
	resp := s.rules.GetRulesHandler(r.Context(), cellID)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
