package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/models"
	"github.com/rankforge/rankforge/internal/neural"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/ranking"
)

type predictResult struct {
	Success      bool      `json:"success"`
	Model        string    `json:"model"`
	ModelVersion string    `json:"modelVersion"`
	Kind         string    `json:"kind"`
	Scores       []float64 `json:"scores"`
	Error        string    `json:"error,omitempty"`
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score records with a stored model",
		Long: `Predict loads a model artifact from the registry, restores the fitted
feature pipeline and scores the given records. Scores are written to stdout
as JSON in input order.`,
		RunE: runPredict,
	}

	cmd.Flags().String("data", "", "path to the records to score (JSON array)")
	cmd.Flags().String("name", "seo-ranker", "model name")
	cmd.Flags().String("model-version", "", "model version (default: latest)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	fail := func(err error) error {
		_ = json.NewEncoder(os.Stdout).Encode(&predictResult{Success: false, Error: err.Error()})
		return err
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return fail(err)
	}

	dataPath, _ := cmd.Flags().GetString("data")
	records, err := dataset.Load(dataPath)
	if err != nil {
		return fail(err)
	}

	name, _ := cmd.Flags().GetString("name")
	modelVersion, _ := cmd.Flags().GetString("model-version")

	registry, err := models.NewRegistry(cfg.ModelsDir)
	if err != nil {
		return fail(err)
	}
	var artifact *models.Artifact
	if modelVersion == "" {
		artifact, err = registry.Latest(name)
	} else {
		artifact, err = registry.Load(name, modelVersion)
	}
	if err != nil {
		return fail(err)
	}
	log = log.WithModel(artifact.Name, artifact.Version)

	var scores []float64
	switch artifact.Kind {
	case models.KindBatch:
		trainerCfg := cfg.Trainer
		trainerCfg.Algorithm = artifact.Booster.Algorithm
		trainerCfg.Boost = artifact.Booster.Params
		trainerCfg.Pipeline = artifact.Options
		trainer, err := ranking.Restore(trainerCfg, artifact.Pipeline, artifact.Booster, log)
		if err != nil {
			return fail(err)
		}
		scores, err = trainer.Predict(records)
		if err != nil {
			return fail(err)
		}
	case models.KindNeural:
		neuralCfg := cfg.Neural
		neuralCfg.Pipeline = artifact.Options
		ranker, err := neural.RestoreRanker(neuralCfg, artifact.Pipeline, artifact.Network, log)
		if err != nil {
			return fail(err)
		}
		scores, err = ranker.Predict(records)
		if err != nil {
			return fail(err)
		}
	default:
		return fail(errors.Newf(errors.CodeValidation, "unknown artifact kind %q", artifact.Kind))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(&predictResult{
		Success:      true,
		Model:        artifact.Name,
		ModelVersion: artifact.Version,
		Kind:         artifact.Kind,
		Scores:       scores,
	})
}
