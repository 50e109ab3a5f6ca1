// Package quality scores raw SEO signal values against per-feature domain
// thresholds so that low-quality observations can be filtered before training.
package quality

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// Category groups features by the part of the ranking signal space they describe.
type Category string

const (
	CategoryOnPage        Category = "on_page"
	CategoryTechnical     Category = "technical"
	CategoryCoreWebVitals Category = "core_web_vitals"
	CategoryAuthority     Category = "authority"
	CategoryEngagement    Category = "engagement"
	CategoryContent       Category = "content"
	CategoryTemporal      Category = "temporal"
	CategoryInteraction   Category = "interaction"
	CategoryComposite     Category = "composite"
)

// ThresholdSpec defines the quality bands for a single feature.
// Weight is in [0,2] with 1 neutral; Inverse means lower raw values are better.
type ThresholdSpec struct {
	Category     Category `json:"category" yaml:"category"`
	MinGood      float64  `json:"min_good" yaml:"min_good"`
	MaxGood      float64  `json:"max_good" yaml:"max_good"`
	MinExcellent float64  `json:"min_excellent" yaml:"min_excellent"`
	MaxExcellent float64  `json:"max_excellent" yaml:"max_excellent"`
	Weight       float64  `json:"weight" yaml:"weight"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Inverse      bool     `json:"inverse" yaml:"inverse"`
}

// Table maps feature names to their threshold specs. Loaded once at startup
// and treated as immutable afterwards.
type Table map[string]ThresholdSpec

// LoadTable reads a threshold table from a YAML or JSON file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading threshold table", err)
	}

	table := Table{}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "parsing threshold table", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks threshold invariants for every entry.
func (t Table) Validate() error {
	for name, spec := range t {
		if spec.Weight < 0 || spec.Weight > 2 {
			return errors.Newf(errors.CodeValidation,
				"threshold %q: weight %.2f outside [0,2]", name, spec.Weight)
		}
		if spec.MinGood > spec.MaxGood {
			return errors.Newf(errors.CodeValidation,
				"threshold %q: min_good %.2f above max_good %.2f", name, spec.MinGood, spec.MaxGood)
		}
		if spec.MinExcellent > spec.MaxExcellent {
			return errors.Newf(errors.CodeValidation,
				"threshold %q: min_excellent %.2f above max_excellent %.2f", name, spec.MinExcellent, spec.MaxExcellent)
		}
	}
	return nil
}

// ExportJSON writes the table as an indented JSON document for external tooling.
func (t Table) ExportJSON(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodePersistence, "serializing threshold table", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.CodePersistence, "writing threshold table", err)
	}
	return nil
}
