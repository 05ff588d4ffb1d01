package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hongminglow/finance-ledger/internal/config"
	"github.com/hongminglow/finance-ledger/internal/http/handlers"
	"github.com/hongminglow/finance-ledger/internal/ledger"
	"github.com/hongminglow/finance-ledger/internal/middleware"
	"github.com/hongminglow/finance-ledger/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, svc *ledger.Service, logger *slog.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}}
}

// Handler builds the routed, middleware-wrapped API handler.
func Handler(cfg config.Config, store storage.Store, svc *ledger.Service, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), store).Register(mux)
	handlers.NewUsersHandler(svc).Register(mux)
	handlers.NewAccountsHandler(svc).Register(mux)
	handlers.NewTransactionsHandler(svc).Register(mux)
	mux.HandleFunc("/", handlers.NotFound)

	return middleware.Logging(logger, middleware.Recover(middleware.CORS(cfg.CORSOrigins, mux)))
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.inner.Serve(l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
