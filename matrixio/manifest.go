package matrixio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Artifact kinds
const (
	KindFeatures  = "features"
	KindDistances = "distances"
	KindRelevance = "relevance"
)

// FailedItem is a catalog entry whose row was reserved but not computed
type FailedItem struct {
	Index int    `yaml:"index" json:"index"`
	File  string `yaml:"file" json:"file"`
	Error string `yaml:"error" json:"error"`
}

// Manifest describes how an artifact was produced
type Manifest struct {
	Kind    string       `yaml:"kind"`
	Key     string       `yaml:"key"`
	Rows    int          `yaml:"rows"`
	Cols    int          `yaml:"cols"`
	Files   []string     `yaml:"files,omitempty"`
	Columns []string     `yaml:"columns,omitempty"`
	Failed  []FailedItem `yaml:"failed,omitempty"`
	Created time.Time    `yaml:"created"`
}

// ManifestPath returns the sidecar path of an artifact
func ManifestPath(artifact string) string {
	return artifact + ".manifest.yaml"
}

// WriteManifest stores m beside artifact
func WriteManifest(artifact string, m *Manifest) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(artifact), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the sidecar of artifact. A missing sidecar returns an
// error matching os.ErrNotExist.
func ReadManifest(artifact string) (*Manifest, error) {
	raw, err := os.ReadFile(ManifestPath(artifact))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// CacheStatus is the outcome of checking an artifact against a parameter key
type CacheStatus int

const (
	// CacheMiss means the artifact is absent or a recompute was requested
	CacheMiss CacheStatus = iota
	// CacheHit means the manifest key matches
	CacheHit
	// CacheUnverified means the artifact exists without a manifest
	CacheUnverified
	// CacheStale means the manifest is unreadable or carries another key
	CacheStale
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheUnverified:
		return "unverified"
	case CacheStale:
		return "stale"
	default:
		return "miss"
	}
}

// Reuse reports whether the artifact may be loaded instead of rebuilt
func (s CacheStatus) Reuse() bool {
	return s == CacheHit || s == CacheUnverified
}

// CheckCache decides whether artifact, built with key, can be reused
func CheckCache(artifact, key string, recompute bool) CacheStatus {
	if recompute || !Exists(artifact) {
		return CacheMiss
	}

	m, err := ReadManifest(artifact)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return CacheUnverified
	case err != nil:
		return CacheStale
	case m.Key != key:
		return CacheStale
	default:
		return CacheHit
	}
}
