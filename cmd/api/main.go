// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/petpet/avatar"
	"github.com/briangreenhill/petpet/cache"
	"github.com/briangreenhill/petpet/internal/config"
	"github.com/briangreenhill/petpet/internal/http/routes"
	"github.com/briangreenhill/petpet/internal/logging"
	"github.com/briangreenhill/petpet/internal/service"
	"github.com/briangreenhill/petpet/petpet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Logger
	logger := logging.New(os.Stdout, cfg.Log)

	// One store for the life of the process, shared by every request.
	store := cache.New(cfg.Cache.Shards)

	source := avatar.New(
		avatar.WithBaseURL(cfg.Avatar.BaseURL),
		avatar.WithUserAgent(cfg.Avatar.UserAgent),
		avatar.WithRateLimit(cfg.Avatar.Rate, cfg.Avatar.Burst),
	)

	svc := service.New(store, source, petpet.New(),
		service.WithFetchTimeout(cfg.Avatar.FetchTimeout),
		service.WithTransformTimeout(cfg.TransformTimeout),
		service.WithCoalescing(cfg.Cache.CoalesceMisses),
		service.WithLogger(logger),
	)

	// Router / server
	s := routes.New(routes.ServerOptions{Svc: svc, Logger: logger})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Avatar.FetchTimeout + cfg.TransformTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", srv.Addr).Msg("listen")
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("avatar_host", cfg.Avatar.BaseURL).
			Int("cache_shards", cfg.Cache.Shards).
			Bool("coalesce_misses", cfg.Cache.CoalesceMisses).
			Msg("starting app")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("serve error")
		}
	}()

	waitForShutdown(srv, cfg.ShutdownTimeout, logger)
}

func waitForShutdown(s *http.Server, timeout time.Duration, logger zerolog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	logger.Info().Msg("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
