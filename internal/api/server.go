// Package api serves the HTTP interface: transcript intake, analysis
// orchestration, graph queries, task lifecycle, and exports.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskflow/taskflow/internal/notify"
	"github.com/taskflow/taskflow/internal/schedule"
)

// StartOpts configures the HTTP server.
type StartOpts struct {
	DB       *gorm.DB
	Port     int
	Out      io.Writer
	Notifier notify.Notifier
	Schedule schedule.Options
}

// Start runs the HTTP server until ctx is cancelled.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return errors.New("api: database handle is required")
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(&Server{
		DB:       opts.DB,
		Notifier: opts.Notifier,
		Schedule: opts.Schedule,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "api listening on %s\n", srv.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Server bundles the dependencies handlers need.
type Server struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Schedule schedule.Options
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, s)
	return router
}
