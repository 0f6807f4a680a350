package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/freshalloc/pkg/export"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run baseline and scored strategies on independent snapshots and compare them",
	RunE:  compare,
}

func init() {
	addScenarioFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func compare(cmd *cobra.Command, args []string) error {
	ctx, svc, sc, cleanup, err := session()
	defer cleanup()
	if err != nil {
		return err
	}
	cmp, err := svc.Compare(ctx, sc)
	if err != nil {
		return err
	}

	w, closeOut, err := output(cmd)
	if err != nil {
		return err
	}
	if format == "csv" {
		err = export.WriteComparisonCSV(w, cmp)
	} else {
		err = export.WriteJSON(w, cmp)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}
