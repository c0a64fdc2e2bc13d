package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file based on its extension and overlays it on
// base, so fields absent from the file keep their current values.
// Supports: .yaml/.yml, .json, .toml
func Load(path string, base Config) (Config, error) {
	cfg := base
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return base, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return base, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return base, err
		}
	default:
		return base, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
