// Package server implements the reference case backend served by
// `case-board serve`.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/bus"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"github.com/Ashfaaq98/case-board/internal/store"
)

// CaseStore is the persistence the backend needs. *store.Store satisfies it.
type CaseStore interface {
	CreateCase(ctx context.Context, fields cases.Fields) (cases.Case, error)
	GetCase(ctx context.Context, id int64) (cases.Case, error)
	ListCases(ctx context.Context) ([]cases.Case, error)
	UpdateCase(ctx context.Context, id int64, fields cases.Fields) (cases.Case, error)
	DeleteCase(ctx context.Context, id int64) error
	LogAction(ctx context.Context, entry store.AuditEntry) error
	Ping(ctx context.Context) error
}

// Options controls the backend server.
type Options struct {
	// Addr to listen on, e.g. "127.0.0.1:8080"
	Addr string
	// Store is required.
	Store CaseStore
	// Bus receives case change messages. Nil disables notifications.
	Bus bus.Bus
	// Schema validates request bodies. Nil uses cases.NewSchema().
	Schema *cases.Schema
	Logger *zap.Logger
}

// Server serves the cases API.
type Server struct {
	opts    Options
	srv     *http.Server
	router  chi.Router
	logger  *zap.Logger
	started int32
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8080"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Bus == nil {
		opts.Bus = bus.NewNullBus(opts.Logger)
	}
	if opts.Schema == nil {
		opts.Schema = cases.NewSchema()
	}

	s := &Server{opts: opts, logger: opts.Logger.Named("server")}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route(api.CasesPath, func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

// Listen binds Addr. Binding separately from Serve lets callers start
// clients only once the port is open.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return ln, nil
}

// Run listens on Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		ln.Close()
		return errors.New("server already started")
	}
	s.logger.Info("case backend listening", zap.String("url", "http://"+ln.Addr().String()+api.CasesPath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("case backend stopped")
	return nil
}
