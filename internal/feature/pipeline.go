package feature

import (
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

// ScalerKind selects the numeric scaling strategy.
type ScalerKind string

const (
	ScalerStandard ScalerKind = "standard"
	ScalerRobust   ScalerKind = "robust"
	ScalerNone     ScalerKind = "none"
)

// ParseScalerKind validates a scaler name. The empty string maps to
// ScalerNone.
func ParseScalerKind(s string) (ScalerKind, error) {
	switch ScalerKind(s) {
	case ScalerStandard, ScalerRobust, ScalerNone:
		return ScalerKind(s), nil
	case "":
		return ScalerNone, nil
	default:
		return "", errors.Newf(errors.CodeValidation, "unknown scaler kind %q", s)
	}
}

// Options controls which transformation groups run.
type Options struct {
	Scaler       ScalerKind `json:"scaler" yaml:"scaler"`
	Ratios       bool       `json:"ratios" yaml:"ratios"`
	Interactions bool       `json:"interactions" yaml:"interactions"`
	Temporal     bool       `json:"temporal" yaml:"temporal"`
	TextFeatures bool       `json:"text_features" yaml:"text_features"`
	VocabSize    int        `json:"vocab_size" yaml:"vocab_size"`
}

// DefaultOptions returns the full pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Scaler:       ScalerStandard,
		Ratios:       true,
		Interactions: true,
		Temporal:     true,
		TextFeatures: true,
		VocabSize:    100,
	}
}

// FittedState holds everything learned in fit mode. Mutated only during fit,
// read-only afterwards; reused unchanged by every transform-mode call.
type FittedState struct {
	Columns    []string           `json:"columns"`
	Scaler     *ScalerState       `json:"scaler,omitempty"`
	Vocabulary []string           `json:"vocabulary,omitempty"`
	Medians    map[string]float64 `json:"medians,omitempty"`
	SkewLog    []string           `json:"skew_log,omitempty"`
}

// Pipeline engineers features with fit/transform symmetry: fit mode learns
// scaler statistics and the text vocabulary, transform mode re-applies them
// and emits the identical column set and order.
type Pipeline struct {
	opts       Options
	log        *logger.Logger
	fitted     bool
	columns    []string
	scaler     *Scaler
	vectorizer *Vectorizer
	medians    map[string]float64
	skewLog    []string
}

// New creates a pipeline with the given options.
func New(opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Default()
	}
	if opts.VocabSize <= 0 {
		opts.VocabSize = 100
	}
	return &Pipeline{opts: opts, log: log}
}

// Restore rebuilds a pipeline from persisted fitted state.
func Restore(opts Options, state FittedState, log *logger.Logger) *Pipeline {
	p := New(opts, log)
	p.fitted = true
	p.columns = state.Columns
	p.medians = state.Medians
	p.skewLog = state.SkewLog
	if state.Scaler != nil {
		p.scaler = &Scaler{kind: opts.Scaler, state: *state.Scaler}
	}
	if len(state.Vocabulary) > 0 {
		p.vectorizer = RestoreVectorizer(state.Vocabulary)
	}
	return p
}

// State exports the fitted state for persistence.
func (p *Pipeline) State() FittedState {
	state := FittedState{Columns: p.columns, Medians: p.medians, SkewLog: p.skewLog}
	if p.scaler != nil {
		s := p.scaler.state
		state.Scaler = &s
	}
	if p.vectorizer != nil {
		state.Vocabulary = p.vectorizer.Vocabulary()
	}
	return state
}

// Fitted reports whether fit mode has run.
func (p *Pipeline) Fitted() bool { return p.fitted }

// Engineer runs the complete transformation pipeline and returns the numeric
// training matrix plus ordered feature names. Steps with missing source
// columns are skipped; malformed temporal fields are fatal.
func (p *Pipeline) Engineer(rows []Record, fit bool) ([][]float64, []string, error) {
	if len(rows) == 0 {
		return nil, nil, errors.DatasetError("no input rows")
	}
	if !fit && !p.fitted {
		return nil, nil, errors.New(errors.CodePipeline, "transform requested before fit")
	}

	f := FrameFromRecords(rows)

	if err := basicFeatures(f); err != nil {
		return nil, nil, err
	}
	if p.opts.Ratios {
		ratioFeatures(f)
	}
	if p.opts.Interactions {
		interactionFeatures(f)
	}
	if p.opts.Temporal {
		if err := temporalFeatures(f); err != nil {
			return nil, nil, err
		}
	}
	if p.opts.TextFeatures {
		if err := p.textFeatures(f, fit); err != nil {
			return nil, nil, err
		}
	}
	compositeScores(f)
	if fit {
		p.skewLog = selectSkewed(f)
	}
	applyLogColumns(f, p.skewLog)
	p.fillMissing(f, fit)

	if fit {
		p.columns = f.NumericColumns()
	}
	matrix, names := f.Matrix(p.columns)

	if p.opts.Scaler != ScalerNone && p.opts.Scaler != "" {
		if fit {
			p.scaler = NewScaler(p.opts.Scaler)
			p.scaler.Fit(matrix)
		}
		if p.scaler != nil {
			p.scaler.Transform(matrix)
		}
	}

	if fit {
		p.fitted = true
		p.log.Debug("pipeline fitted", "rows", len(rows), "features", len(names))
	}
	return matrix, names, nil
}

// FeatureNames returns the fitted column order.
func (p *Pipeline) FeatureNames() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}
