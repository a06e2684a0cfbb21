package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/viant/cogniflow"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to the sessions of a cogniflow service.
type Server struct {
	service  *cogniflow.Service
	logger   zerolog.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// Option customises a Server.
type Option func(s *Server)

// WithCheckOrigin sets the websocket origin check; all origins are accepted otherwise.
func WithCheckOrigin(check func(r *stdhttp.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

// New creates a server and registers its routes.
func New(service *cogniflow.Service, options ...Option) *Server {
	ret := &Server{
		service: service,
		logger:  service.Logger().With().Str("component", "http").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *stdhttp.Request) bool { return true },
		},
	}
	for _, option := range options {
		option(ret)
	}
	ret.engine = gin.New()
	ret.engine.Use(gin.Recovery(), ret.requestLogger())
	ret.routes()
	return ret
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() stdhttp.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	})
	if m := s.service.Metrics(); m != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
	v1 := s.engine.Group("/v1")
	v1.GET("/policy", s.getPolicy)
	v1.PUT("/policy", s.putPolicy)
	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions", s.listSessions)

	session := v1.Group("/sessions/:session")
	session.GET("", s.snapshot)
	session.DELETE("", s.closeSession)
	session.GET("/stream", s.stream)
	session.POST("/submit", s.submit)
	session.POST("/cancel", s.cancel)
	session.POST("/reset", s.reset)
	session.GET("/approvals", s.approvals)
	session.GET("/archive", s.archived)

	turn := session.Group("/turns/:turn")
	turn.GET("", s.turn)
	turn.POST("/steps", s.addStep)
	turn.PUT("/steps/:index", s.updateStep)
	turn.DELETE("/steps/:index", s.deleteStep)
	turn.POST("/reorder", s.reorder)
	turn.POST("/execute", s.execute)
	turn.POST("/archive", s.archive)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		event := s.logger.Debug()
		if len(c.Errors) > 0 {
			event = s.logger.Error().Str("errors", c.Errors.String())
		}
		event.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(started)).
			Msg("request served")
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &stdhttp.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("listening")
		errs <- server.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
