package web

// HTTP front end: serves the input form, renders submissions and streams
// the encoded images back as downloads.

import (
	"context"
	"dtr-image/internal/dtr"
	"dtr-image/internal/infra/log"
	"dtr-image/internal/infra/ratelimit"
	"dtr-image/internal/render"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

const defaultMaxFormBytes = 64 * 1024

type Options struct {
	Renderer     *render.Renderer
	Layout       dtr.Layout
	OutputDir    string
	SaveOutputs  bool
	Limiter      *ratelimit.Keyed // nil disables rate limiting
	MaxFormBytes int64
}

type Server struct {
	renderer     *render.Renderer
	layout       dtr.Layout
	outputDir    string
	saveOutputs  bool
	limiter      *ratelimit.Keyed
	maxFormBytes int64
	page         *template.Template
}

func NewServer(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("web: renderer is required")
	}
	if err := render.ValidateLayout(opts.Layout); err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse page template: %w", err)
	}

	maxFormBytes := opts.MaxFormBytes
	if maxFormBytes <= 0 {
		maxFormBytes = defaultMaxFormBytes
	}

	return &Server{
		renderer:     opts.Renderer,
		layout:       opts.Layout.Clone(),
		outputDir:    opts.OutputDir,
		saveOutputs:  opts.SaveOutputs,
		limiter:      opts.Limiter,
		maxFormBytes: maxFormBytes,
		page:         page,
	}, nil
}

// Routes returns the HTTP handler with logging applied.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/", s.handleIndex)
	router.HandlerFunc(http.MethodPost, "/generate", s.rateLimited(s.handleGenerate))
	router.HandlerFunc(http.MethodPost, "/generate/:format", s.rateLimited(s.handleDownload))
	router.HandlerFunc(http.MethodGet, "/healthz", s.handleHealth)
	return logRequests(router)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	if s.limiter != nil {
		go s.limiter.RunCleanup(ctx, 5*time.Minute, 10*time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		log.LogSuccess("HTTP server listening", zap.String("addr", addr), zap.String("layout", s.layout.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.LogInfo("Shutdown signal received, stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogWarn("HTTP server did not stop cleanly", zap.Error(err))
		return err
	}
	log.LogSuccess("HTTP server stopped gracefully")
	return nil
}
