// Package server exposes the search service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docsearch/internal/config"
	"docsearch/internal/domain"
	"docsearch/internal/lexical"
)

// Service is the part of the search service the HTTP layer calls.
type Service interface {
	Ingest(ctx context.Context, path, name string) (*domain.Document, error)
	Restore(ctx context.Context, name string) (*domain.Document, error)
	Search(query string, maxResults int, minSimilarity float64) (*domain.SearchResponse, error)
	SimilarChunks(id, n int) ([]domain.SimilarChunk, error)
	TopTerms(n int) ([]lexical.TermWeight, error)
	Stats() (domain.IndexStats, bool)
}

// Options configures a Server.
type Options struct {
	Server config.ServerConfig
	Search config.SearchConfig
	// UploadDir holds uploads while they are processed. Defaults to the OS temp dir.
	UploadDir string
	// RestoreName is a persisted document to load on the first search when
	// nothing has been indexed yet.
	RestoreName string
	Logger      *slog.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Server struct {
	e    *echo.Echo
	svc  Service
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	lastDoc string
}

func New(svc Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{e: echo.New(), svc: svc, opts: opts, log: opts.Logger, lastDoc: opts.RestoreName}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = s.handleError
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/", s.index)
	s.e.POST("/upload", s.upload, middleware.BodyLimit(fmt.Sprintf("%dM", s.opts.Server.MaxUploadMB+1)))
	s.e.POST("/search", s.search)
	s.e.GET("/stats", s.stats)
	s.e.GET("/terms", s.terms)
	s.e.GET("/chunks/:id/similar", s.similar)
	s.e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.opts.Gatherer != nil {
		s.e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.e }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- s.e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return s.e.Shutdown(shutdownCtx)
}

func (s *Server) rememberDocument(name string) {
	s.mu.Lock()
	s.lastDoc = name
	s.mu.Unlock()
}

func (s *Server) lastDocument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDoc
}

// handleError renders every failure as {"success": false, "message": ...}.
func (s *Server) handleError(err error, c echo.Context) {
	code, msg := statusFor(err)
	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", code, "error", err)
	} else {
		s.log.Warn("request rejected", "method", req.Method, "path", req.URL.Path, "status", code, "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, failure(msg))
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound, err.Error()
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, err.Error()
	case domain.KindProcessing:
		return http.StatusUnprocessableEntity, err.Error()
	case domain.KindSearch:
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error: " + err.Error()
	}
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}
