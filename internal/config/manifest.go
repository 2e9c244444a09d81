package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a versioned capability allow-list kept in its own file so it
// can be reviewed and pinned independently of the rest of the config.
type Manifest struct {
	Version int      `yaml:"version"`
	Allow   []string `yaml:"allow"`
}

// LoadManifest reads a capability manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Version == 0 {
		return nil, fmt.Errorf("manifest %s: missing version", path)
	}
	if len(m.Allow) == 0 {
		return nil, fmt.Errorf("manifest %s: empty allow list", path)
	}

	return &m, nil
}
