package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llmpoold/pkg/types"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr                string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir           string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	Runner              string `json:"runner" yaml:"runner" toml:"runner"`
	GenerationTimeoutMS int    `json:"generation_timeout_ms" yaml:"generation_timeout_ms" toml:"generation_timeout_ms"`
	QueueDepth          int    `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth"`
	MaxWorkers          int    `json:"max_workers" yaml:"max_workers" toml:"max_workers"`
	DefaultBackend      string `json:"default_backend" yaml:"default_backend" toml:"default_backend"`
	// Workers prepared at startup, in addition to models discovered in
	// ModelsDir. Keys are worker ids.
	Workers map[string]types.WorkerConfig `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
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
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
