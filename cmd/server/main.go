// Package main provides the entry point for the keepsake API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/hollowmoss/keepsake/internal/config"
	db "github.com/hollowmoss/keepsake/internal/db/gorm"
	"github.com/hollowmoss/keepsake/internal/graph"
	"github.com/hollowmoss/keepsake/internal/server"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to settings file")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().
		Str("version", Version).
		Msg("Starting keepsake server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, err := db.NewStore(db.Config{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		LogLevel: logger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	var mirror server.GraphMirror
	if cfg.Graph.Enabled {
		m, err := graph.NewMirror(cfg.Graph.Addr, cfg.Graph.Name)
		if err != nil {
			// The mirror is best-effort; run without it rather than refuse
			// to start.
			log.Error().Err(err).Msg("Graph mirror unavailable, continuing without it")
		} else {
			mirror = m
		}
	}

	svc := server.NewService(cfg, store, mirror)

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case <-quit:
		log.Info().Msg("Received shutdown signal")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	log.Info().Msg("Server shutdown complete")
}
