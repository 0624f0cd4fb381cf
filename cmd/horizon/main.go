package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/horizon/config"
	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
)

type globalFlags struct {
	cfgPath  string
	logLevel string
	logJSON  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCMD().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCMD() *cobra.Command {
	g := &globalFlags{}
	var root = &cobra.Command{
		Use:           "horizon",
		Short:         "Horizon scanning for weak signals and future scenarios",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&g.cfgPath, "config", "c", "", "config file (default is ./horizon.{yaml,json})")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(scanCMD(g), scoreCMD(g), signalsCMD(g), serveCMD(g))
	return root
}

type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *telemetry.Metrics
}

// setup loads configuration and applies the logging flags on top of it.
func (g *globalFlags) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(g.cfgPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.General.LogLevel = g.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.General.LogJSON = g.logJSON
	}
	log, err := logging.New(cfg.General.LogLevel, cfg.General.LogJSON)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, metrics: telemetry.NewMetrics()}, nil
}

// serveMetrics runs the metrics endpoint in the background when enabled.
func (r *app) serveMetrics(ctx context.Context) {
	if !r.cfg.Telemetry.Enabled {
		return
	}
	go func() {
		if err := r.metrics.Serve(ctx, r.cfg.Telemetry); err != nil {
			r.log.Error("metrics server stopped", "error", err)
		}
	}()
}

func printJSON(cmd *cobra.Command, b []byte) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
