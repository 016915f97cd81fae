// Package cmd provides the command-line interface for cmdhub with
// configuration management supporting multiple configuration sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--config, --log-level, ...)
//  2. CMDHUB_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (CMDHUB_LOGGING_LEVEL, ...)
//  4. Configuration file (.cmdhub.yml)
//
// Besides the built-in inspection commands, the root command exposes every
// command registered with the default hub, including commands discovered
// from manifest files, rendered through the cobra adapter.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/cmdhub/internal/adapter"
	"github.com/conneroisu/cmdhub/internal/adapter/cobraadapter"
	"github.com/conneroisu/cmdhub/internal/cmdtree"
	"github.com/conneroisu/cmdhub/internal/hub"
	"github.com/conneroisu/cmdhub/internal/registry"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cmdhub",
	Short: "A registry-backed command hub",
	Long: `Cmdhub turns a registry of named commands into an executable CLI.
Commands register under dot-separated names (db.migrate.up) and are rendered
into a nested command tree. Commands can also be discovered from YAML
manifest files and rescanned when those files change.

Quick Start:
  cmdhub list                     List registered commands
  cmdhub dimensions               Show populated registry dimensions
  cmdhub watch                    Watch manifest paths and rescan on change

Configuration: .cmdhub.yml in the current directory, or CMDHUB_* environment
variables (CMDHUB_DISCOVERY_PATHS, CMDHUB_LOGGING_LEVEL, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute builds the application, mounts every registered command onto the
// root, and runs it. The returned exit code is derived from the error's
// category.
func Execute() int {
	initConfig()

	app, err := buildApp(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return adapter.ExitCode(err)
	}

	if err := mountRegisteredCommands(app.hub); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return adapter.ExitCode(err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", formatError(app.hub, err))
		return adapter.ExitCode(err)
	}

	return adapter.ExitOK
}

// mountRegisteredCommands renders the hub's command tree and grafts its
// top-level commands onto the root alongside the built-in ones.
func mountRegisteredCommands(h *hub.Hub) error {
	root, err := cmdtree.NewBuilder(h).Build()
	if err != nil {
		return err
	}

	rendered, err := cobraadapter.New(cobraadapter.WithUse("cmdhub")).RenderCommand(root)
	if err != nil {
		return err
	}

	for _, cmd := range rendered.Commands() {
		rootCmd.AddCommand(cmd)
	}

	return nil
}

// formatError runs the hub's default error handler over err, falling back
// to the plain error string when no handler is registered.
func formatError(h *hub.Hub, err error) string {
	entry, lookupErr := h.ErrorHandler(hub.DefaultErrorHandlerName)
	if lookupErr != nil {
		return err.Error()
	}

	format, ok := entry.Target.Handler().(func(error) string)
	if !ok {
		return err.Error()
	}

	return format(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cmdhub.yml, can also use CMDHUB_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	// Binding a freshly declared flag cannot fail.
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Config file resolution, highest priority first:
//  1. --config flag
//  2. CMDHUB_CONFIG_FILE environment variable
//  3. .cmdhub.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("CMDHUB_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cmdhub")
	}

	viper.SetEnvPrefix("CMDHUB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dimensionFromFlag parses a --dimension flag value.
func dimensionFromFlag(value string) (registry.Dimension, error) {
	dim := registry.Dimension(value)
	if !dim.Known() {
		return "", fmt.Errorf("unknown dimension %q (known: %v)", value, registry.Dimensions())
	}
	return dim, nil
}
