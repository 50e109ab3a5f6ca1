package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/models"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage stored model artifacts",
	}
	cmd.AddCommand(modelsListCmd(), modelsDeleteCmd())
	return cmd
}

func modelsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := models.NewRegistry(cfg.ModelsDir)
			if err != nil {
				return err
			}
			artifacts, err := registry.List()
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				type row struct {
					Name      string `json:"name"`
					Version   string `json:"version"`
					Kind      string `json:"kind"`
					Algorithm string `json:"algorithm"`
					Hash      string `json:"hash"`
				}
				rows := make([]row, 0, len(artifacts))
				for _, a := range artifacts {
					rows = append(rows, row{a.Name, a.Version, a.Kind, a.Algorithm, a.Hash})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			for _, a := range artifacts {
				fmt.Printf("%s %s  kind=%s algorithm=%s created=%s\n",
					a.Name, a.Version, a.Kind, a.Algorithm, a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func modelsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name> <version>",
		Short: "Delete a stored model version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := models.NewRegistry(cfg.ModelsDir)
			if err != nil {
				return err
			}
			if err := registry.Delete(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}
