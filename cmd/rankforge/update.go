package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/models"
	"github.com/rankforge/rankforge/internal/neural"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/stream"
)

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Continue training a stored neural model on new data",
		Long: `Update restores a neural model artifact, applies an incremental or
online update on the new records, and stores the result under a new
version. Network weights and optimizer state carry over, so learning
continues rather than restarting.`,
		RunE: runUpdate,
	}

	cmd.Flags().String("data", "", "path to the new labeled records (JSON array)")
	cmd.Flags().String("name", "seo-ranker", "model name")
	cmd.Flags().String("model-version", "", "source model version (default: latest)")
	cmd.Flags().String("new-version", "", "version to store the updated model under")
	cmd.Flags().String("mode", neural.UpdateIncremental, "update mode (incremental, online)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("new-version")

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	fail := func(err error) error { return failResult(engineNeural, runID, err) }

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return fail(err)
	}
	log = log.WithRun(runID)

	dataPath, _ := cmd.Flags().GetString("data")
	records, err := dataset.Load(dataPath)
	if err != nil {
		return fail(err)
	}

	name, _ := cmd.Flags().GetString("name")
	modelVersion, _ := cmd.Flags().GetString("model-version")
	newVersion, _ := cmd.Flags().GetString("new-version")
	mode, _ := cmd.Flags().GetString("mode")

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
	if artifact.Kind != models.KindNeural {
		return fail(errors.Newf(errors.CodeValidation,
			"update requires a neural artifact, %s-%s is %q", name, artifact.Version, artifact.Kind))
	}

	neuralCfg := cfg.Neural
	neuralCfg.Pipeline = artifact.Options
	ranker, err := neural.RestoreRanker(neuralCfg, artifact.Pipeline, artifact.Network, log)
	if err != nil {
		return fail(err)
	}

	emitter, err := buildEmitter(cfg, log)
	if err != nil {
		return fail(err)
	}
	defer emitter.Close()

	res := &trainResult{
		Engine:    engineNeural,
		Algorithm: artifact.Algorithm,
		RunID:     runID,
		Rows:      len(records),
	}

	switch mode {
	case neural.UpdateIncremental:
		result, err := ranker.IncrementalUpdate(records)
		if err != nil {
			return fail(err)
		}
		res.Metrics = result.Metrics
		emitter.Emit(stream.NewEvent(stream.TypeIncremental, runID, 0, map[string]float64{
			"loss":   result.Loss,
			"ndcg10": result.Metrics.NDCG[10],
		}))
	case neural.UpdateOnline:
		totalLoss := 0.0
		for _, rec := range records {
			loss, err := ranker.OnlineUpdate(rec)
			if err != nil {
				return fail(err)
			}
			totalLoss += loss
		}
		if len(records) > 0 {
			totalLoss /= float64(len(records))
		}
		emitter.Emit(stream.NewEvent(stream.TypeOnline, runID, 0, map[string]float64{"loss": totalLoss}))
	default:
		return fail(errors.Newf(errors.CodeValidation, "unknown update mode %q", mode))
	}

	updated := &models.Artifact{
		Name:      name,
		Version:   newVersion,
		Kind:      models.KindNeural,
		Algorithm: artifact.Algorithm,
		CreatedAt: time.Now().UTC(),
		Options:   artifact.Options,
		Pipeline:  ranker.PipelineState(),
		Network:   ranker.NetworkState(),
	}
	if err := registry.Save(updated); err != nil {
		return fail(err)
	}

	res.Success = true
	res.ModelPath = artifactPath(cfg.ModelsDir, name, newVersion)
	res.ModelHash = updated.Hash
	res.History = ranker.History()
	writeResult(res)
	return nil
}
