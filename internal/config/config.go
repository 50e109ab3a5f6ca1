// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/neural"
	"github.com/rankforge/rankforge/internal/ranking"
)

// Config holds all application configuration.
type Config struct {
	// Model storage
	ModelsDir string `envconfig:"RANKFORGE_MODELS_DIR" yaml:"models_dir"`

	// Quality gate
	Quality QualityConfig `yaml:"quality"`

	// Batch ranking trainer
	Trainer ranking.Config `yaml:"trainer"`

	// Real-time neural ranker
	Neural neural.Config `yaml:"neural"`

	// Live metric streaming
	Stream StreamConfig `yaml:"stream"`

	// Metric history persistence
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// QualityConfig holds quality gate settings.
type QualityConfig struct {
	// ThresholdsFile optionally overrides the built-in threshold catalog.
	ThresholdsFile string `envconfig:"RANKFORGE_THRESHOLDS_FILE" yaml:"thresholds_file"`

	// MinQuality filters training rows below this overall score (0 disables).
	MinQuality float64 `envconfig:"RANKFORGE_MIN_QUALITY" yaml:"min_quality"`

	// Workers bounds concurrent record scoring.
	Workers int `envconfig:"RANKFORGE_QUALITY_WORKERS" yaml:"workers"`
}

// StreamConfig holds live metric delivery settings.
type StreamConfig struct {
	// Sink selects the push target: "none", "kafka" or "webhook".
	Sink string `envconfig:"RANKFORGE_STREAM_SINK" yaml:"sink"`

	KafkaBrokers string        `envconfig:"RANKFORGE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaTopic   string        `envconfig:"RANKFORGE_KAFKA_TOPIC" yaml:"kafka_topic"`
	WebhookURL   string        `envconfig:"RANKFORGE_WEBHOOK_URL" yaml:"webhook_url"`
	PushTimeout  time.Duration `envconfig:"RANKFORGE_PUSH_TIMEOUT" yaml:"push_timeout"`

	QueueSize     int     `envconfig:"RANKFORGE_STREAM_QUEUE_SIZE" yaml:"queue_size"`
	RatePerSecond float64 `envconfig:"RANKFORGE_STREAM_RATE" yaml:"rate_per_second"`
	MaxFailures   int     `envconfig:"RANKFORGE_STREAM_MAX_FAILURES" yaml:"max_failures"`
}

// MetricsConfig holds metric history settings.
type MetricsConfig struct {
	// RedisURL enables Redis persistence of training metric series when set.
	RedisURL  string `envconfig:"RANKFORGE_REDIS_URL" yaml:"redis_url"`
	MaxPoints int    `envconfig:"RANKFORGE_METRICS_MAX_POINTS" yaml:"max_points"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"RANKFORGE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"RANKFORGE_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
// Precedence: defaults, then YAML file, then environment.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	setDefaults(cfg)

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.ModelsDir = "./models"

	cfg.Quality = QualityConfig{
		MinQuality: 0,
		Workers:    4,
	}

	cfg.Trainer = ranking.DefaultConfig()
	cfg.Neural = neural.DefaultConfig()

	cfg.Stream = StreamConfig{
		Sink:          "none",
		KafkaTopic:    "rankforge.training.metrics",
		PushTimeout:   2 * time.Second,
		QueueSize:     2048,
		RatePerSecond: 20,
		MaxFailures:   5,
	}

	cfg.Metrics = MetricsConfig{
		MaxPoints: 1000,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir cannot be empty")
	}
	if c.Quality.Workers <= 0 {
		return fmt.Errorf("quality workers must be positive, got %d", c.Quality.Workers)
	}
	if c.Quality.MinQuality < 0 || c.Quality.MinQuality > 100 {
		return fmt.Errorf("min_quality must be in [0,100], got %g", c.Quality.MinQuality)
	}

	switch c.Trainer.Algorithm {
	case ranking.AlgorithmLambdaMART, ranking.AlgorithmGBRank:
	default:
		return fmt.Errorf("unknown trainer algorithm %q", c.Trainer.Algorithm)
	}
	if c.Trainer.TestSize <= 0 || c.Trainer.TestSize >= 1 {
		return fmt.Errorf("trainer test_size must be in (0,1), got %g", c.Trainer.TestSize)
	}

	if c.Neural.TestSize <= 0 || c.Neural.TestSize >= 1 {
		return fmt.Errorf("neural test_size must be in (0,1), got %g", c.Neural.TestSize)
	}
	if len(c.Neural.Hidden) == 0 {
		return fmt.Errorf("neural hidden layers cannot be empty")
	}

	switch c.Stream.Sink {
	case "none", "":
	case "kafka":
		if c.Stream.KafkaBrokers == "" {
			return fmt.Errorf("stream sink is kafka but no brokers configured")
		}
	case "webhook":
		if c.Stream.WebhookURL == "" {
			return fmt.Errorf("stream sink is webhook but no url configured")
		}
	default:
		return fmt.Errorf("unknown stream sink %q", c.Stream.Sink)
	}

	if _, err := feature.ParseScalerKind(string(c.Trainer.Pipeline.Scaler)); err != nil {
		return err
	}
	if _, err := feature.ParseScalerKind(string(c.Neural.Pipeline.Scaler)); err != nil {
		return err
	}
	return nil
}
