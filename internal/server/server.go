// Package server holds the application container shared by middleware,
// handlers and the router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/routekit/internal/config"
	"github.com/deppfellow/routekit/internal/lib/ratelimit"
	"github.com/deppfellow/routekit/internal/logger"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Server struct {
	Config *config.Config

	Logger *zerolog.Logger

	// LoggerService holds the New Relic application; it may be nil.
	LoggerService *logger.LoggerService

	// Redis is nil when no address is configured.
	Redis *redis.Client

	RateLimit *ratelimit.Client

	// Schemas collects shared schemas; it freezes on the first validated request.
	Schemas *validation.Registry

	// Routes compiles route declarations into echo handlers.
	Routes *route.Compiler

	httpServer *http.Server
}

// Option customizes New.
type Option func(*Server)

// WithLoggerService enables New Relic instrumentation of the Redis client
// and, through the middleware, of every request.
func WithLoggerService(service *logger.LoggerService) Option {
	return func(s *Server) {
		s.LoggerService = service
	}
}

// WithRedis uses client instead of dialing cfg.Redis.Address.
func WithRedis(client *redis.Client) Option {
	return func(s *Server) {
		s.Redis = client
	}
}

// New builds the container. A nil log discards everything.
func New(cfg *config.Config, log *zerolog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	server := &Server{
		Config: cfg,
		Logger: log,
	}

	for _, opt := range opts {
		opt(server)
	}

	if server.Redis == nil && cfg.Redis.Enabled() {
		server.Redis = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Address,
		})

		if server.LoggerService.GetApplication() != nil {
			server.Redis.AddHook(nrredis.NewHook(server.Redis.Options()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Redis.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("Failed to connect to Redis, continuing with Redis unavailable")
		}
	}

	rl := cfg.RateLimit
	if rl == nil {
		rl = config.DefaultRateLimitConfig()
	}

	server.RateLimit = ratelimit.NewClient(rl.ServiceName, server.Redis, ratelimit.Config{
		PublicPoints:    rl.PublicPoints,
		PublicDuration:  rl.PublicDuration,
		PrivatePoints:   rl.PrivatePoints,
		PrivateDuration: rl.PrivateDuration,
	})

	server.Schemas = validation.NewRegistry()
	server.Routes = route.NewCompiler(log, server.Schemas)

	return server, nil
}

func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Bool("redis", s.Redis != nil).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}

	return nil
}
