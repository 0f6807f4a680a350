package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/freshalloc/app/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the module types selectable in the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := plugins.Catalog()
		for _, kind := range plugins.Kinds() {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, strings.Join(catalog[kind], ", ")); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
