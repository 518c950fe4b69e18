package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david/tender-radar/internal/api"
	"github.com/david/tender-radar/internal/auth"
	"github.com/david/tender-radar/internal/config"
	"github.com/david/tender-radar/internal/digest"
	"github.com/david/tender-radar/internal/frameworks"
	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/scoring"
)

func main() {
	cfg := config.Load()

	pipeline, err := ingest.NewPipelineFromRegistry(cfg.Collect.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to build collection pipeline: %v", err)
	}

	catalogue, err := frameworks.LoadCatalogue(cfg.Collect.FrameworkPath)
	if err != nil {
		log.Fatalf("Failed to load framework catalogue: %v", err)
	}

	authService, err := auth.NewService(cfg.Auth, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialise auth: %v", err)
	}

	srv := api.NewServer(cfg, api.Deps{
		Collector:  pipeline,
		Scorer:     scoring.NewEngine(nil),
		Frameworks: frameworks.NewService(catalogue, nil),
		Mailer:     digest.NewNotifier(cfg.Digest),
		Auth:       authService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s...", cfg.Server.Port)
		if err := srv.Start(cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
