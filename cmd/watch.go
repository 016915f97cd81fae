package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cmdhub/internal/discovery"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch manifest paths and rescan on change",
	Long: `Watch the configured discovery paths for manifest changes and rescan
when they change. Runs until interrupted.

Examples:
  cmdhub watch
  CMDHUB_DISCOVERY_PATHS=./manifests cmdhub watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}

	if len(app.cfg.Discovery.Paths) == 0 {
		return fmt.Errorf("no discovery paths configured (set discovery.paths or CMDHUB_DISCOVERY_PATHS)")
	}

	watcher, err := discovery.NewWatcher(app.scanner, app.cfg.Discovery.Debounce)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher.Start(ctx)
	app.logger.Info(ctx, "watching manifest paths", "paths", app.cfg.Discovery.Paths)

	<-ctx.Done()
	return nil
}
