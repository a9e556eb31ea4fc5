package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/routekit/internal/config"
	"github.com/deppfellow/routekit/internal/handler"
	"github.com/deppfellow/routekit/internal/logger"
	"github.com/deppfellow/routekit/internal/router"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/rs/zerolog"
)

const DefaultContextTimeout = 30

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		bootstrap := logger.New(cfg.Observability)
		bootstrap.Fatal().Err(err).Msg("failed to initialize new relic")
	}
	defer loggerService.Shutdown()

	log := logger.NewWithService(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, server.WithLoggerService(loggerService))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	handlers := handler.NewHandlers(srv)

	r, err := router.NewRouter(srv, handlers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
