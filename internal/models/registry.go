package models

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// Registry manages named, versioned model artifacts in a directory. Files
// are laid out as <dir>/<name>-<version>.json.
type Registry struct {
	dir string
	mu  sync.RWMutex
}

// NewRegistry creates the model directory if needed.
func NewRegistry(dir string) (*Registry, error) {
	if dir == "" {
		return nil, errors.ValidationError("model directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.PersistenceError("failed to create model directory", err)
	}
	return &Registry{dir: dir}, nil
}

func (r *Registry) path(name, version string) string {
	return filepath.Join(r.dir, name+"-"+version+".json")
}

// Save persists an artifact under its name and version.
func (r *Registry) Save(a *Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return a.Save(r.path(a.Name, a.Version))
}

// Load retrieves one artifact by name and version, verifying its hash.
func (r *Registry) Load(name, version string) (*Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Load(r.path(name, version))
}

// Latest returns the lexically newest version of a named model.
func (r *Registry) Latest(name string) (*Artifact, error) {
	versions, err := r.Versions(name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, errors.NotFoundError("model " + name)
	}
	return r.Load(name, versions[len(versions)-1])
}

// Versions lists the stored versions of a named model, sorted ascending.
func (r *Registry) Versions(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.PersistenceError("failed to list model directory", err)
	}
	prefix := name + "-"
	var versions []string
	for _, e := range entries {
		fn := e.Name()
		if e.IsDir() || !strings.HasPrefix(fn, prefix) || !strings.HasSuffix(fn, ".json") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(fn, prefix), ".json"))
	}
	sort.Strings(versions)
	return versions, nil
}

// List returns every stored (name, version) pair.
func (r *Registry) List() ([]*Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.PersistenceError("failed to list model directory", err)
	}
	var artifacts []*Artifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		a, err := Load(filepath.Join(r.dir, e.Name()))
		if err != nil {
			// Skip unreadable artifacts, keep listing the rest.
			continue
		}
		artifacts = append(artifacts, a)
	}
	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].Name != artifacts[j].Name {
			return artifacts[i].Name < artifacts[j].Name
		}
		return artifacts[i].Version < artifacts[j].Version
	})
	return artifacts, nil
}

// Delete removes one stored artifact.
func (r *Registry) Delete(name, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(r.path(name, version)); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFoundError("model " + name + " version " + version)
		}
		return errors.PersistenceError("failed to delete artifact", err)
	}
	return nil
}

// Exists reports whether a model version is stored.
func (r *Registry) Exists(name, version string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := os.Stat(r.path(name, version))
	return err == nil
}
