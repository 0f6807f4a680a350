package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/freshalloc/config"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/infra/runlog"
	"github.com/kilianp07/freshalloc/pkg/export"
)

var (
	runsStrategy string
	runsRequest  string
	runsSince    time.Duration
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the run log",
	RunE:  queryRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsStrategy, "strategy", "", "only runs of this strategy")
	runsCmd.Flags().StringVar(&runsRequest, "request", "", "only runs touching this request ID")
	runsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs started within this duration")
	rootCmd.AddCommand(runsCmd)
}

func queryRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := runlog.New(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Strategy: model.Strategy(runsStrategy), RequestID: runsRequest}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), recs)
}
