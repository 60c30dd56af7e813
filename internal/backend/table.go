package backend

import (
	"fmt"
	"time"

	"llmpoold/pkg/types"
)

// tableModel answers prompts from a fixed lookup table. Options:
//
//	responses:  map of prompt -> response (required)
//	latency_ms: artificial per-generation delay, for load/timeout drills
type tableModel struct {
	modelPath string
	responses map[string]string
	latency   time.Duration
}

func newTableModel(cfg types.WorkerConfig) (*tableModel, error) {
	raw, ok := cfg.Options["responses"]
	if !ok {
		return nil, fmt.Errorf("table backend: missing responses option")
	}
	responses := make(map[string]string)
	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("table backend: response for %q is not a string", k)
			}
			responses[k] = s
		}
	case map[string]string:
		for k, v := range m {
			responses[k] = v
		}
	default:
		return nil, fmt.Errorf("table backend: responses option must be a map")
	}
	latency := time.Duration(optInt(cfg.Options, "latency_ms", 0)) * time.Millisecond
	return &tableModel{modelPath: cfg.ModelPath, responses: responses, latency: latency}, nil
}

func (m *tableModel) Generate(prompt string) (types.Generation, error) {
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
	resp, ok := m.responses[prompt]
	if !ok {
		return types.Generation{}, fmt.Errorf("table backend: no response for prompt %q", prompt)
	}
	return types.Generation{Content: resp, FinishReason: "stop"}, nil
}
