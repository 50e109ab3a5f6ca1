package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/quality"
)

type qualityResult struct {
	Success    bool                 `json:"success"`
	Records    int                  `json:"records"`
	TierCounts map[quality.Tier]int `json:"tierCounts"`
	MeanScore  float64              `json:"meanScore"`
	Reports    []*quality.Report    `json:"reports,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func qualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Score dataset records against the quality thresholds",
		Long: `Quality evaluates every record's features against the threshold catalog
and reports per-record tiers plus an aggregate summary. Records are scored
concurrently.`,
		RunE: runQuality,
	}

	cmd.Flags().String("data", "", "path to the records to score (JSON array)")
	cmd.Flags().Bool("detail", false, "include per-record reports in the output")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runQuality(cmd *cobra.Command, args []string) error {
	fail := func(err error) error {
		_ = json.NewEncoder(os.Stdout).Encode(&qualityResult{Success: false, Error: err.Error()})
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return fail(err)
	}

	dataPath, _ := cmd.Flags().GetString("data")
	records, err := dataset.Load(dataPath)
	if err != nil {
		return fail(err)
	}

	table, err := loadThresholdTable(cfg)
	if err != nil {
		return fail(err)
	}

	gate := quality.NewGate(table, cfg.Quality.Workers)
	reports, err := gate.ScoreRecords(context.Background(), records)
	if err != nil {
		return fail(err)
	}

	res := &qualityResult{
		Success:    true,
		Records:    len(records),
		TierCounts: make(map[quality.Tier]int),
	}
	sum := 0.0
	for _, r := range reports {
		res.TierCounts[r.OverallTier]++
		sum += r.OverallScore
	}
	if len(reports) > 0 {
		res.MeanScore = sum / float64(len(reports))
	}
	if detail, _ := cmd.Flags().GetBool("detail"); detail {
		res.Reports = reports
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
