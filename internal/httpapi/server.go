// Package httpapi wires the evaluation service's one real endpoint,
// POST /evaluations, behind the same Gin + zap shape the teacher used
// for its channel-management API (cmd/zmux-server/main.go): gin.New()
// with an explicit middleware chain, a ZapLogger access-log middleware,
// and an http.Server with bounded timeouts and zap wired as ErrorLog.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edirooss/codeeval-server/internal/dispatch"
	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/evalrunner"
	"github.com/edirooss/codeeval-server/internal/httpapi/middleware"
	"github.com/edirooss/codeeval-server/internal/verdictcache"
)

// Server bundles the HTTP layer's dependencies: a dispatcher to route
// Samples to the right language runner, an optional verdict cache, and
// a logger.
type Server struct {
	log        *zap.Logger
	dispatcher *dispatch.Dispatcher
	cache      *verdictcache.Cache

	httpServer *http.Server
}

// Options configures New.
type Options struct {
	Addr               string
	Dispatcher         *dispatch.Dispatcher
	Cache              *verdictcache.Cache // nil disables caching
	MaxConcurrentEvals int64
	DevCORS            bool // mirrors the teacher's ENV=dev CORS carve-out
}

// New builds a Server and its underlying http.Server, but does not start
// listening — call Run to do that.
func New(log *zap.Logger, opts Options) *Server {
	s := &Server{log: log.Named("httpapi"), dispatcher: opts.Dispatcher, cache: opts.Cache}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())

	if opts.DevCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"X-Cache", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.RequestID())
	r.Use(zapLogger(s.log))
	r.Use(middleware.CapConcurrentEvals(opts.MaxConcurrentEvals))

	r.GET("/health", s.health)
	r.POST("/evaluations", s.evaluate)

	s.httpServer = &http.Server{
		Addr:    opts.Addr,
		Handler: r,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // evaluations can legitimately run tens of seconds
		IdleTimeout:  60 * time.Second,

		MaxHeaderBytes: 1 << 15,

		ErrorLog: zap.NewStdLog(s.log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// drains in-flight requests before returning. This is the one ambient
// addition the teacher's own main.go didn't carry (it ran
// ListenAndServe to completion with no shutdown path) — a batch
// evaluation harness is expected to be stopped cleanly between runs, so
// graceful shutdown belongs here even though no teacher file models it
// directly; see DESIGN.md.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("running HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// zapLogger is a Gin access-log middleware adapted from the teacher's
// ZapLogger in cmd/zmux-server/main.go.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// runEvaluation bounds a runner invocation by the effective timeout plus
// a small margin, so a runner that somehow ignores its own timeout
// parameter still cannot hang the request indefinitely.
func (s *Server) runEvaluation(c *gin.Context, runner evalrunner.Runner, sample evalmodel.Sample, timeout time.Duration) (evalmodel.Verdict, evalmodel.ResourceStats) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout+5*time.Second)
	defer cancel()

	req := evalrunner.Request{
		Code:          sample.Code,
		Test:          sample.Test,
		Timeout:       timeout,
		MemoryLimitMB: sample.MemoryLimit,
	}
	return runner.Run(ctx, req)
}
