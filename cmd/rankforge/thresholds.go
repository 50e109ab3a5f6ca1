package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func exportThresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-thresholds",
		Short: "Export the active quality threshold catalog as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			table, err := loadThresholdTable(cfg)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if err := table.ExportJSON(out); err != nil {
				return err
			}
			fmt.Printf("exported %d thresholds to %s\n", len(table), out)
			return nil
		},
	}
	cmd.Flags().String("out", "thresholds.json", "output file path")
	return cmd
}
