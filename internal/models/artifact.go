// Package models persists trained ranking models as self-contained JSON
// artifacts: everything needed to restore prediction (and, for the neural
// ranker, to continue training) travels in one file.
package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/neural"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/hash"
	"github.com/rankforge/rankforge/internal/ranking"
)

// Artifact kinds.
const (
	KindBatch  = "batch"
	KindNeural = "neural"
)

// Artifact is a persisted model bundle. Exactly one of Booster or Network is
// set, matching Kind.
type Artifact struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Kind      string    `json:"kind"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"created_at"`

	// Options are the pipeline hyperparameters the model was fitted with;
	// restore paths must use them, not the current runtime configuration.
	Options  feature.Options       `json:"options"`
	Pipeline feature.FittedState   `json:"pipeline"`
	Booster  *ranking.BoosterState `json:"booster,omitempty"`
	Network  *neural.NetworkState  `json:"network,omitempty"`

	// Hash is the content hash of the artifact payload, filled on save and
	// verified on load.
	Hash string `json:"hash,omitempty"`
}

// Validate checks structural consistency before persistence.
func (a *Artifact) Validate() error {
	if a.Name == "" {
		return errors.ValidationError("artifact name cannot be empty")
	}
	if a.Version == "" {
		return errors.ValidationError("artifact version cannot be empty")
	}
	switch a.Kind {
	case KindBatch:
		if a.Booster == nil {
			return errors.ValidationError("batch artifact requires booster state")
		}
	case KindNeural:
		if a.Network == nil {
			return errors.ValidationError("neural artifact requires network state")
		}
	default:
		return errors.Newf(errors.CodeValidation, "unknown artifact kind %q", a.Kind)
	}
	return nil
}

// payload returns the canonical bytes that the content hash covers.
func (a *Artifact) payload() ([]byte, error) {
	shadow := *a
	shadow.Hash = ""
	data, err := json.Marshal(&shadow)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "failed to marshal artifact", err)
	}
	return data, nil
}

// Save writes the artifact atomically: marshal to a temp file in the target
// directory, fsync, then rename over the final path. A crash mid-write never
// leaves a truncated artifact behind.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}

	data, err := a.payload()
	if err != nil {
		return err
	}
	a.Hash = hash.SHA256(data)

	final, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to marshal artifact", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.PersistenceError("failed to create model directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return errors.PersistenceError("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(final); err != nil {
		tmp.Close()
		return errors.PersistenceError("failed to write artifact", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.PersistenceError("failed to sync artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.PersistenceError("failed to close artifact", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.PersistenceError("failed to finalize artifact", err)
	}
	return nil
}

// Load reads an artifact and verifies its content hash.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("model artifact " + path)
		}
		return nil, errors.PersistenceError("failed to read artifact", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.PersistenceError("failed to parse artifact", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if a.Hash != "" {
		payload, err := a.payload()
		if err != nil {
			return nil, err
		}
		if got := hash.SHA256(payload); got != a.Hash {
			return nil, errors.Newf(errors.CodePersistence,
				"artifact %s failed hash verification", path)
		}
	}
	return &a, nil
}
