// Package config decodes the optional zpp.yaml project manifest.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is the optional project file sitting next to a root source.
// Only Mode has CLI flags (--debug/--release) that override it; LLC, Opt
// and Link are taken from the manifest as written.
type Manifest struct {
	Root string   `yaml:"root"`
	Mode string   `yaml:"mode"` // "debug" or "release"
	Link []string `yaml:"link"`
	LLC  string   `yaml:"llc"`
	Opt  string   `yaml:"opt"`
}

// Load reads and decodes path. A missing file is not an error: it
// returns a zero-value Manifest, since the manifest is entirely
// optional (SPEC_FULL.md §8 property 11).
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, errors.Wrap(err, "config: reading manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "config: parsing manifest")
	}
	return &m, nil
}

// IsDebug reports whether the manifest's mode resolves to debug; the
// default (empty or unrecognised) mode is release.
func (m *Manifest) IsDebug() bool { return m.Mode == "debug" }
