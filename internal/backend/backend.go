// Package backend constructs model runtimes from worker configurations.
//
// Each supported runtime implements the Model capability; Spawn is the
// factory that maps a configuration's backend tag to a concrete
// implementation. Unsupported tags fail at construction time so that a
// misconfigured worker never silently swallows prompts.
package backend

import (
	"fmt"

	"llmpoold/pkg/types"
)

// Model is the single capability the pool needs from a runtime.
type Model interface {
	// Generate produces one response for one prompt. Blocking.
	Generate(prompt string) (types.Generation, error)
}

// Spawn builds a Model from cfg. This may block for a long time for real
// runtimes (model loading, server warmup).
func Spawn(cfg types.WorkerConfig) (Model, error) {
	switch cfg.Backend {
	case types.BackendTable:
		return newTableModel(cfg)
	case types.BackendLlamaServer:
		return newLlamaServerModel(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend: %q", cfg.Backend)
	}
}

// optString reads a string option, returning def when absent.
func optString(opts map[string]any, key, def string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// optInt reads a numeric option. JSON decoding yields float64, YAML yields
// int, so both are accepted.
func optInt(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// optFloat reads a float option with the same tolerance as optInt.
func optFloat(opts map[string]any, key string, def float64) float64 {
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
