// Command main is the entry point for the Bucket List backend server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cerega32/Bucket-List/internal/bootstrap"
	"github.com/Cerega32/Bucket-List/internal/config"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/observability"
	"github.com/Cerega32/Bucket-List/internal/server"
	"github.com/Cerega32/Bucket-List/internal/storage"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg, version)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		LoadCatalog: cfg.SeedCatalogOnStart,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	srv := server.NewServer(cfg, db, redisClient, blobs)

	notifyCtx, stopNotifications := context.WithCancel(ctx)
	if err := srv.StartNotifications(notifyCtx); err != nil {
		middleware.Logger.Error("notification sockets disabled", slog.String("error", err.Error()))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		stopNotifications()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			middleware.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			middleware.Logger.Error("Tracer shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
