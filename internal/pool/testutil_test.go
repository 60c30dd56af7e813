package pool

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"llmpoold/internal/backend"
	"llmpoold/internal/worker"
	"llmpoold/pkg/types"
)

// TestMain doubles as the subprocess worker entry: when the worker config
// environment variable is present, this binary was re-executed by the
// subprocess runner and must behave as the child, not run the tests.
func TestMain(m *testing.M) {
	if cfgJSON := os.Getenv(worker.ConfigEnv); cfgJSON != "" {
		os.Exit(worker.Run(cfgJSON, os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(m.Run())
}

// tableConfig builds a table-backend worker configuration from a
// prompt->response mapping.
func tableConfig(modelPath string, responses map[string]any) types.WorkerConfig {
	return types.WorkerConfig{
		ModelPath: modelPath,
		Backend:   types.BackendTable,
		Options:   map[string]any{"responses": responses},
	}
}

// fakeModel answers with a fixed lookup, optionally sleeping first.
type fakeModel struct {
	responses map[string]string
	delay     time.Duration
	genErr    error
}

func (m *fakeModel) Generate(prompt string) (types.Generation, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.genErr != nil {
		return types.Generation{}, m.genErr
	}
	resp, ok := m.responses[prompt]
	if !ok {
		return types.Generation{}, errors.New("no response for " + prompt)
	}
	return types.Generation{Content: resp, FinishReason: "stop"}, nil
}

// slowSpawn returns a spawn func whose model sleeps before every answer.
func slowSpawn(delay time.Duration, responses map[string]string) SpawnFunc {
	return func(cfg types.WorkerConfig) (backend.Model, error) {
		return &fakeModel{responses: responses, delay: delay}, nil
	}
}

// failingSpawn returns a spawn func that always fails to build a model.
func failingSpawn(msg string) SpawnFunc {
	return func(cfg types.WorkerConfig) (backend.Model, error) {
		return nil, errors.New(msg)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// mustPrepareStart registers and starts a worker, failing the test on error.
func mustPrepareStart(t *testing.T, p *Pool, cfg types.WorkerConfig, id string) string {
	t.Helper()
	got, err := p.Prepare(cfg, id)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := p.Start(got); err != nil {
		t.Fatalf("start: %v", err)
	}
	return got
}
