// Package rest exposes the session endpoints over HTTP with gin and guards
// protected pages with the Gate middleware.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/users"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	cfg     *config.Config
	users   *users.Service
	access  *auth.Codec
	logger  logging.Logger
	engine  *gin.Engine
}

// NewServer builds the router. access verifies access tokens in the gate.
func NewServer(cfg *config.Config, l logging.Logger, us *users.Service, access *auth.Codec) *Server {
	s := &Server{
		address: cfg.EndpointAddrHTTP,
		cfg:     cfg,
		users:   us,
		access:  access,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.Environment == common.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// without trusted proxies the client IP is the socket peer;
	// entries are checked by config.Validate
	if err := r.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		s.logger.Error(context.Background(), "invalid trusted proxies, ignoring forwarding headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(recovery(s.logger), requestLogger(s.logger))
	r.Use(Gate(s.access, s.cfg, s.logger))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/login", s.login)
		authGroup.GET("/refresh", s.refresh)
		authGroup.POST("/refresh", s.refresh)
		authGroup.POST("/logout", s.logout)

		api.POST("/users", s.register)
	}

	r.GET("/dashboard", s.dashboard)
	r.GET("/healthz", s.healthz)

	return r
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
