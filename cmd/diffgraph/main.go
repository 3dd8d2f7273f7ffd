// Command diffgraph evaluates differentiable computation graphs described in
// YAML or JSON documents.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/config"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/observability"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/oplib"
)

// version is set at build time.
var version = "dev"

// app holds what every command needs after flags and config are read.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	ops      *oplib.Library
	shutdown func(context.Context) error

	out io.Writer
	err io.Writer
}

// graphOptions returns the options new graphs are built with.
func (a *app) graphOptions() []diffgraph.Option {
	opts := []diffgraph.Option{diffgraph.WithLogger(a.logger), diffgraph.WithMode(a.settings.Mode)}
	if a.settings.Metrics {
		opts = append(opts, diffgraph.WithMetrics(observability.NewMetricsRecorder()))
	}
	if a.settings.Tracing {
		opts = append(opts, diffgraph.WithSpanManager(observability.NewSpanManager()))
	}
	return opts
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath string
		storePath  string
		opsPath    string
		logLevel   string
	)
	a := &app{out: stdout, err: stderr}

	rootCmd := &cobra.Command{
		Use:           "diffgraph",
		Short:         "Evaluate values and derivatives of computation graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configPath, storePath, opsPath, logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(context.Background())
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite database for stored graphs (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opsPath, "ops", "", "Document of extra operation definitions")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(
		newEvalCmd(a),
		newExplainCmd(a),
		newOpsCmd(a),
		newStoreCmd(a),
	)

	return rootCmd
}

// setup loads settings, the logger, telemetry and the operation library.
// Flags override the config file.
func (a *app) setup(configPath, storePath, opsPath, logLevel string) error {
	cfg := config.New(nil)
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	for key, value := range map[string]string{
		config.KeyStorePath:  storePath,
		config.KeyOperations: opsPath,
		config.KeyLogLevel:   logLevel,
	} {
		if value != "" {
			cfg = cfg.With(key, value)
		}
	}

	settings, err := config.SettingsFrom(cfg)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = settings.Logger(a.err)
	slog.SetDefault(a.logger)

	shutdown, err := observability.InitStdout(a.err, observability.ExportConfig{
		ServiceName: "diffgraph",
		Version:     version,
		Metrics:     settings.Metrics,
		Tracing:     settings.Tracing,
	})
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	a.ops = oplib.Builtins(diffgraph.WithOperationLogger(a.logger))
	if settings.OperationsPath != "" {
		if err := a.loadOperations(settings.OperationsPath); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) loadOperations(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read operations: %w", err)
	}
	format, err := diffgraph.FormatFromPath(path)
	if err != nil {
		return err
	}
	defs, err := oplib.DecodeDefinitions(data, format)
	if err != nil {
		return fmt.Errorf("operations %s: %w", path, err)
	}
	return a.ops.RegisterDefinitions(defs, diffgraph.WithOperationLogger(a.logger))
}
