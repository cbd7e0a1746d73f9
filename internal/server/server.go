package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/streaming"
	"github.com/skobyn/media-core/pkg/logger"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
	readTimeout    = 10
	writeTimeout   = 10
	idleTimeout    = 60
)

type Server struct {
	echo         *echo.Echo
	cfg          *config.Config
	redisClient  *redis.Client
	orchestrator jobs.Orchestrator
	sessions     streaming.UseCase
	logger       logger.Logger
}

func NewServer(cfg *config.Config, redisClient *redis.Client, orchestrator jobs.Orchestrator, sessions streaming.UseCase, logger logger.Logger) *Server {
	return &Server{
		echo:         echo.New(),
		cfg:          cfg,
		redisClient:  redisClient,
		orchestrator: orchestrator,
		sessions:     sessions,
		logger:       logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       300,
	}))

	s.orchestrator.Start()
	s.sessions.Start()

	server := &http.Server{
		Addr:         s.cfg.Server.Port,
		ReadTimeout:  time.Second * readTimeout,
		WriteTimeout: time.Second * writeTimeout,
		IdleTimeout:  time.Second * idleTimeout,
	}
	go func() {
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("error starting server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	s.logger.Infof("shutting down server")
	s.sessions.Stop()
	s.orchestrator.Stop()

	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	return s.echo.Server.Shutdown(ctx)
}
