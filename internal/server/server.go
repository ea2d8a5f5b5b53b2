// =============================================================================
// Nota Fiscal Generator - HTTP Server
// =============================================================================
//
// This module serves the browser front end: an HTML form pre-filled with the
// defaults, and a POST endpoint that runs the generation pipeline and returns
// the generated file as a download.
//
// ROUTES:
//   GET  /          HTML form (?installments=N renders N installment rows)
//   POST /notas     Generate and download a nota fiscal
//   GET  /healthz   Liveness probe
//
// =============================================================================

package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/converter"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/logger"
)

//go:embed form.tmpl
var formTemplate string

// maxInstallments caps the rows rendered by GET /.
const maxInstallments = 120

// Server wires the gin engine to a Converter.
type Server struct {
	cfg       *config.MainConfig
	converter *converter.Converter
	logger    *zap.Logger
	engine    *gin.Engine
	now       func() time.Time
}

// New creates a Server and registers its routes.
func New(cfg *config.MainConfig, conv *converter.Converter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		converter: conv,
		logger:    log,
		now:       time.Now,
	}

	engine := gin.New()
	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	engine.SetHTMLTemplate(template.Must(template.New("form").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(formTemplate)))

	engine.GET("/", s.showForm)
	engine.POST("/notas", s.generate)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	timeout, err := s.cfg.ShutdownTimeout()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited gracefully")
	return nil
}
