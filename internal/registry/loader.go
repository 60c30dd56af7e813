package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"llmpoold/pkg/types"
)

// LoadDir scans a directory for *.gguf files and builds a model registry
// from filenames. ID is the full filename (including extension); Path is
// the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{ID: name, Name: name, Path: filepath.Join(abs, name)})
	}
	return models, nil
}

// WorkerConfigs turns discovered models into worker configurations for
// the given backend tag, keyed by model id. The opts map is shared by
// reference; callers that mutate per-worker options should copy it first.
func WorkerConfigs(models []types.Model, backend types.Backend, opts map[string]any) map[string]types.WorkerConfig {
	out := make(map[string]types.WorkerConfig, len(models))
	for _, m := range models {
		out[m.ID] = types.WorkerConfig{ModelPath: m.Path, Backend: backend, Options: opts}
	}
	return out
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
