package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/mmynk/splitledger/internal/app"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/seed"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level)

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	logger.Info("Seeding demo data...")
	if _, err := seed.Run(ctx, store, auth.NewPasswordAuthenticator(store), logger); err != nil {
		if errors.Is(err, seed.ErrAlreadySeeded) {
			logger.Warn("Nothing to do", "reason", err)
			return
		}
		logger.Error("Seed failed", "error", err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Seed completed.", "password", seed.DemoPassword)
}
