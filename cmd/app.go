package cmd

import (
	"context"
	"fmt"

	"github.com/conneroisu/cmdhub/internal/config"
	"github.com/conneroisu/cmdhub/internal/discovery"
	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/logging"
)

// app bundles the pieces every subcommand needs: configuration, a logger,
// the default hub, and the manifest scanner.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	hub     *hub.Hub
	scanner *discovery.Scanner
}

// buildApp loads configuration, wires the hub, and performs the initial
// manifest scan.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})

	h := hub.Default()

	scanner := discovery.NewScanner(h, cfg.Discovery.Paths,
		discovery.WithLogger(logger.WithComponent("discovery")))
	if len(cfg.Discovery.Paths) > 0 {
		if _, err := scanner.Scan(ctx); err != nil {
			return nil, err
		}
	}

	return &app{cfg: cfg, logger: logger, hub: h, scanner: scanner}, nil
}
