package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/freshalloc/app"
	"github.com/kilianp07/freshalloc/config"
	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/infra/logger"
	"github.com/kilianp07/freshalloc/pkg/scenario"
)

var (
	cfgPath      string
	scenarioPath string
	outputPath   string
	format       string
)

var rootCmd = &cobra.Command{
	Use:           "freshalloc",
	Short:         "Freshness-aware food allocation engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file with nodes, batches and requests")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	_ = cmd.MarkFlagRequired("scenario")
}

// session loads config and scenario and starts a service bound to a
// signal-aware context. The returned cleanup must always be called.
func session() (context.Context, *app.Service, *scenario.Scenario, func(), error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	fail := func(err error) (context.Context, *app.Service, *scenario.Scenario, func(), error) {
		stop()
		return nil, nil, nil, func() {}, err
	}
	switch format {
	case "json", "csv":
	default:
		return fail(fmt.Errorf("unknown format %q", format))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fail(fmt.Errorf("load config: %w", err))
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return fail(fmt.Errorf("load scenario: %w", err))
	}
	log := logger.NewWithOptions("cli", logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	for _, w := range sc.Warnings {
		log.Warnf("%s", w)
	}

	var opts []allocation.Option
	if !sc.Now.IsZero() {
		now := sc.Now
		opts = append(opts, allocation.WithClock(func() time.Time { return now }))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return fail(err)
	}
	svc.Start(ctx)
	cleanup := func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
		stop()
	}
	return ctx, svc, sc, cleanup, nil
}

func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
