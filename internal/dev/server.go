// Package dev provides the routekit development server: it serves the
// current route manifest and folded route tree, rebuilds the manifest when
// route files change, and pushes reload notifications over WebSocket.
package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/routekit-dev/routekit/internal/build"
	"github.com/routekit-dev/routekit/internal/config"
	"github.com/routekit-dev/routekit/pkg/manifest"
	"github.com/routekit-dev/routekit/pkg/routetree"
)

// treeNode is the dev server's own tree node shape, serialized by the
// /__routekit/tree endpoint. Building it through routetree.Build guarantees
// it folds collisions exactly like the engine's tree does.
type treeNode struct {
	ID       string      `json:"id"`
	Path     string      `json:"path,omitempty"`
	Index    bool        `json:"index,omitempty"`
	Children []*treeNode `json:"children,omitempty"`
}

func (n *treeNode) RoutePath() string                { return n.Path }
func (n *treeNode) SetRoutePath(path string)         { n.Path = path }
func (n *treeNode) SetChildren(children []*treeNode) { n.Children = children }

// Server is the development server.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	reload *ReloadServer

	// dataHandler, if set, serves requests carrying the _data query
	// parameter (the application's loader/action endpoints).
	dataHandler http.Handler

	mu       sync.RWMutex
	manifest *manifest.Manifest

	watcher *Watcher
	httpSrv *http.Server
}

// Option configures the dev server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithDataHandler mounts the application's data endpoint handler.
func WithDataHandler(h http.Handler) Option {
	return func(s *Server) { s.dataHandler = h }
}

// NewServer creates a dev server for the project configuration.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		reload: NewReloadServer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	m, err := build.Manifest(cfg.Routes)
	if err != nil {
		return nil, err
	}
	s.manifest = m

	w, err := NewWatcher(cfg.Routes, cfg.Styles, s.handleChange)
	if err != nil {
		return nil, err
	}
	s.watcher = w
	return s, nil
}

// Manifest returns the current route manifest.
func (s *Server) Manifest() *manifest.Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

// handleChange rebuilds the manifest on route changes and notifies clients.
func (s *Server) handleChange(c Change) {
	switch c.Type {
	case ChangeCSS:
		s.logger.Info("stylesheet changed", "file", c.Path)
		s.reload.NotifyCSS(c.Path)

	case ChangeRoute:
		m, err := build.Manifest(s.cfg.Routes)
		if err != nil {
			s.logger.Error("manifest rebuild failed", "error", err)
			s.reload.NotifyError(err.Error())
			return
		}
		s.mu.Lock()
		s.manifest = m
		s.mu.Unlock()

		s.logger.Info("route manifest rebuilt", "routes", m.Len())
		s.reload.ClearError()
		s.reload.NotifyManifest()
	}
}

// Handler returns the dev server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/routes.json", s.serveManifest)
	r.Get("/__routekit/tree", s.serveTree)
	r.Get("/__routekit/reload", s.reload.HandleWebSocket)

	if s.cfg.StylePrefix != "" {
		fileServer := http.StripPrefix(s.cfg.StylePrefix,
			http.FileServer(http.Dir(s.cfg.Styles)))
		r.Get(s.cfg.StylePrefix+"*", fileServer.ServeHTTP)
	}

	if s.dataHandler != nil {
		r.Handle("/*", s.dataHandler)
	}
	return r
}

func (s *Server) serveManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := s.Manifest().WriteTo(w); err != nil {
		s.logger.Error("writing manifest response", "error", err)
	}
}

func (s *Server) serveTree(w http.ResponseWriter, r *http.Request) {
	roots := routetree.Build(s.Manifest(),
		func(rec *manifest.Record) *treeNode {
			return &treeNode{ID: rec.ID, Path: rec.Path, Index: rec.Index}
		},
		func(path string) *treeNode {
			return &treeNode{ID: routetree.FolderID(path), Path: path}
		},
	)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roots)
}

// ListenAndServe starts the watcher and serves until the context is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Dev.Host, s.cfg.Dev.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.watcher.Start()
	defer s.watcher.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.logger.Info("dev server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
