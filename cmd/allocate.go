package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/pkg/export"
)

var strategyName string

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Run one allocation strategy over a scenario",
	RunE:  allocate,
}

func init() {
	addScenarioFlags(allocateCmd)
	allocateCmd.Flags().StringVar(&strategyName, "strategy", "scored", "allocation strategy: baseline or scored")
	rootCmd.AddCommand(allocateCmd)
}

func allocate(cmd *cobra.Command, args []string) error {
	strategy, err := allocation.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	ctx, svc, sc, cleanup, err := session()
	defer cleanup()
	if err != nil {
		return err
	}
	res, err := svc.Allocate(ctx, strategy, sc)
	if err != nil {
		return err
	}

	w, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if format == "csv" {
		err = export.WriteAllocationsCSV(w, res.Allocations)
	} else {
		err = export.WriteJSON(w, res)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}
