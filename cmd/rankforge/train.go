package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/metrics"
	"github.com/rankforge/rankforge/internal/models"
	"github.com/rankforge/rankforge/internal/neural"
	"github.com/rankforge/rankforge/internal/pkg/logger"
	"github.com/rankforge/rankforge/internal/quality"
	"github.com/rankforge/rankforge/internal/ranking"
	"github.com/rankforge/rankforge/internal/stream"
)

// Engine names accepted by train and update.
const (
	engineBatch  = "batch"
	engineNeural = "neural"
)

// trainResult is the JSON document written to stdout after a run. Consumers
// rely on the success flag plus a non-zero exit code on failure.
type trainResult struct {
	Success           bool                     `json:"success"`
	Engine            string                   `json:"engine"`
	Algorithm         string                   `json:"algorithm,omitempty"`
	RunID             string                   `json:"runId"`
	ModelPath         string                   `json:"modelPath,omitempty"`
	ModelHash         string                   `json:"modelHash,omitempty"`
	Rows              int                      `json:"rows"`
	FilteredRows      int                      `json:"filteredRows,omitempty"`
	Metrics           *ranking.Metrics         `json:"metrics,omitempty"`
	FeatureImportance []ranking.ImportancePair `json:"featureImportance,omitempty"`
	History           []neural.SessionRecord   `json:"history,omitempty"`
	Error             string                   `json:"error,omitempty"`
}

func writeResult(res *trainResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

func failResult(engine, runID string, err error) error {
	writeResult(&trainResult{Success: false, Engine: engine, RunID: runID, Error: err.Error()})
	return err
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a ranking model from a labeled dataset",
		Long: `Train reads a JSON dataset of labeled feature records, runs the quality
gate and the feature engineering pipeline, trains the selected engine and
stores the resulting model artifact. The result document is written to
stdout as JSON; a failed run exits non-zero.`,
		RunE: runTrain,
	}

	cmd.Flags().String("data", "", "path to the labeled dataset (JSON array of records)")
	cmd.Flags().String("engine", engineBatch, "training engine (batch, neural)")
	cmd.Flags().String("name", "seo-ranker", "model name")
	cmd.Flags().String("model-version", "v1", "model version")
	cmd.Flags().Float64("min-quality", -1, "quality gate admit threshold 0-100 (-1: use config)")
	cmd.Flags().Float64("downsample", 0, "downsample low-relevance rows to this ratio (0: off)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	engine, _ := cmd.Flags().GetString("engine")

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return failResult(engine, runID, err)
	}
	log = log.WithRun(runID)

	dataPath, _ := cmd.Flags().GetString("data")
	records, err := dataset.Load(dataPath)
	if err != nil {
		return failResult(engine, runID, err)
	}
	total := len(records)

	records, err = applyQualityGate(cmd, cfg, log, records)
	if err != nil {
		return failResult(engine, runID, err)
	}

	if ratio, _ := cmd.Flags().GetFloat64("downsample"); ratio > 0 {
		before := len(records)
		records = ranking.Downsample(records, ratio, cfg.Trainer.Boost.Seed)
		log.Info("downsampled training data", "before", before, "after", len(records))
	}

	name, _ := cmd.Flags().GetString("name")
	modelVersion, _ := cmd.Flags().GetString("model-version")

	registry, err := models.NewRegistry(cfg.ModelsDir)
	if err != nil {
		return failResult(engine, runID, err)
	}

	res := &trainResult{
		Engine:       engine,
		RunID:        runID,
		Rows:         len(records),
		FilteredRows: total - len(records),
	}

	switch engine {
	case engineBatch:
		err = trainBatch(cfg, log, records, name, modelVersion, registry, res)
	case engineNeural:
		err = trainNeural(cfg, log, records, name, modelVersion, runID, registry, res)
	default:
		err = errUnknownEngine(engine)
	}
	if err != nil {
		return failResult(engine, runID, err)
	}

	res.Success = true
	writeResult(res)
	return nil
}

func trainBatch(cfg *config.Config, log *logger.Logger, records []feature.Record,
	name, modelVersion string, registry *models.Registry, res *trainResult) error {

	trainer, err := ranking.NewTrainer(cfg.Trainer, log)
	if err != nil {
		return err
	}
	result, err := trainer.Train(records)
	if err != nil {
		return err
	}

	artifact := &models.Artifact{
		Name:      name,
		Version:   modelVersion,
		Kind:      models.KindBatch,
		Algorithm: cfg.Trainer.Algorithm,
		CreatedAt: time.Now().UTC(),
		Options:   cfg.Trainer.Pipeline,
		Pipeline:  trainer.PipelineState(),
		Booster:   trainer.BoosterState(),
	}
	if err := registry.Save(artifact); err != nil {
		return err
	}

	res.Algorithm = cfg.Trainer.Algorithm
	res.ModelPath = artifactPath(cfg.ModelsDir, name, modelVersion)
	res.ModelHash = artifact.Hash
	res.Metrics = result.Metrics
	res.FeatureImportance = result.FeatureImportance
	return nil
}

func trainNeural(cfg *config.Config, log *logger.Logger, records []feature.Record,
	name, modelVersion, runID string, registry *models.Registry, res *trainResult) error {

	emitter, err := buildEmitter(cfg, log)
	if err != nil {
		return err
	}
	defer emitter.Close()

	history := buildHistory(cfg, log)

	ranker, err := neural.NewRanker(cfg.Neural, log)
	if err != nil {
		return err
	}
	ranker.SetEpochHook(func(u neural.EpochUpdate) {
		values := map[string]float64{"loss": u.Loss, "val_ndcg10": u.ValNDCG}
		emitter.Emit(stream.NewEvent(stream.TypeEpoch, runID, u.Epoch, values))
		history.RecordAll(runID, u.Epoch, values)
	})

	result, err := ranker.Train(records)
	if err != nil {
		return err
	}
	emitter.Emit(stream.NewEvent(stream.TypeComplete, runID, 0, map[string]float64{
		"ndcg10": result.Metrics.NDCG[10],
		"map":    result.Metrics.MAP,
		"loss":   result.Loss,
	}))

	artifact := &models.Artifact{
		Name:      name,
		Version:   modelVersion,
		Kind:      models.KindNeural,
		Algorithm: "pairwise-nn",
		CreatedAt: time.Now().UTC(),
		Options:   cfg.Neural.Pipeline,
		Pipeline:  ranker.PipelineState(),
		Network:   ranker.NetworkState(),
	}
	if err := registry.Save(artifact); err != nil {
		return err
	}

	res.Algorithm = "pairwise-nn"
	res.ModelPath = artifactPath(cfg.ModelsDir, name, modelVersion)
	res.ModelHash = artifact.Hash
	res.Metrics = result.Metrics
	res.History = ranker.History()
	return nil
}

// applyQualityGate scores records concurrently and drops the ones below the
// configured admit threshold.
func applyQualityGate(cmd *cobra.Command, cfg *config.Config, log *logger.Logger,
	records []feature.Record) ([]feature.Record, error) {

	table, err := loadThresholdTable(cfg)
	if err != nil {
		return nil, err
	}

	minQuality := cfg.Quality.MinQuality
	if v, _ := cmd.Flags().GetFloat64("min-quality"); v >= 0 {
		minQuality = v
	}

	gate := quality.NewGate(table, cfg.Quality.Workers)
	kept, _, err := gate.Filter(context.Background(), records, minQuality)
	if err != nil {
		return nil, err
	}
	if dropped := len(records) - len(kept); dropped > 0 {
		log.Info("quality gate filtered records", "dropped", dropped, "kept", len(kept), "min_quality", minQuality)
	}
	return kept, nil
}

func loadThresholdTable(cfg *config.Config) (quality.Table, error) {
	if cfg.Quality.ThresholdsFile != "" {
		return quality.LoadTable(cfg.Quality.ThresholdsFile)
	}
	return quality.DefaultTable(), nil
}

func buildEmitter(cfg *config.Config, log *logger.Logger) (*stream.Emitter, error) {
	emitterCfg := stream.EmitterConfig{
		QueueSize:     cfg.Stream.QueueSize,
		PushTimeout:   cfg.Stream.PushTimeout,
		RatePerSecond: cfg.Stream.RatePerSecond,
		MaxFailures:   cfg.Stream.MaxFailures,
	}

	var publisher stream.Publisher
	var err error
	switch cfg.Stream.Sink {
	case "kafka":
		publisher, err = stream.NewKafkaPublisher(stream.KafkaConfig{
			Brokers: splitCommas(cfg.Stream.KafkaBrokers),
			Topic:   cfg.Stream.KafkaTopic,
			Timeout: cfg.Stream.PushTimeout,
		})
	case "webhook":
		publisher, err = stream.NewWebhookPublisher(stream.WebhookConfig{
			URL:     cfg.Stream.WebhookURL,
			Timeout: cfg.Stream.PushTimeout,
		})
	}
	if err != nil {
		// Best-effort channel: fall back to queue-only rather than failing
		// the training run.
		log.Warn("metric sink unavailable, using queue only", "sink", cfg.Stream.Sink, "error", err)
		publisher = nil
	}
	return stream.NewEmitter(emitterCfg, publisher, log), nil
}

func buildHistory(cfg *config.Config, log *logger.Logger) *metrics.History {
	if cfg.Metrics.RedisURL != "" {
		storage, err := metrics.NewRedisStorage(cfg.Metrics.RedisURL)
		if err == nil {
			return metrics.NewHistoryWithRedis(cfg.Metrics.MaxPoints, storage)
		}
		log.Warn("redis unavailable, metric history is in-memory only", "error", err)
	}
	return metrics.NewHistory(cfg.Metrics.MaxPoints)
}

func artifactPath(dir, name, version string) string {
	return filepath.Join(dir, name+"-"+version+".json")
}
