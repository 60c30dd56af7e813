package pool

import (
	"testing"
	"time"

	"llmpoold/pkg/types"
)

func TestResetEqualConfigIsNoOp(t *testing.T) {
	p := New(RunnerGoroutine, time.Second)
	cfg := tableConfig("my_test_model_path", map[string]any{
		"prompt_a": "response_a",
		"prompt_b": "response_b",
	})
	id := mustPrepareStart(t, p, cfg, "w1")

	// Structurally equal copy, different map identity.
	same := tableConfig("my_test_model_path", map[string]any{
		"prompt_b": "response_b",
		"prompt_a": "response_a",
	})
	if _, err := p.Reset(id, same); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if running, _ := p.IsRunning(id); !running {
		t.Fatalf("equal-config reset must not stop a running worker")
	}
	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestResetChangedConfigStopsAndReplaces(t *testing.T) {
	p := New(RunnerGoroutine, time.Second)
	id := mustPrepareStart(t, p, tableConfig("old_path", map[string]any{"a": "1"}), "w1")

	next := tableConfig("new_path", map[string]any{"b": "2"})
	got, err := p.Reset(id, next)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got != id {
		t.Fatalf("reset returned id %q, want %q", got, id)
	}
	if running, _ := p.IsRunning(id); running {
		t.Fatalf("expected not running after changed-config reset")
	}
	rec, err := p.record(id)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !configsEqual(rec.config, next) {
		t.Fatalf("stored config not replaced: %+v", rec.config)
	}
}

func TestResetStoppedWorkerReplacesConfig(t *testing.T) {
	p := New(RunnerGoroutine, time.Second)
	if _, err := p.Prepare(tableConfig("p1", map[string]any{"a": "1"}), "w1"); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	next := tableConfig("p2", map[string]any{"a": "2"})
	if _, err := p.Reset("w1", next); err != nil {
		t.Fatalf("reset: %v", err)
	}
	rec, _ := p.record("w1")
	if !configsEqual(rec.config, next) {
		t.Fatalf("stored config not replaced: %+v", rec.config)
	}
	if running, _ := p.IsRunning("w1"); running {
		t.Fatalf("reset must leave the worker stopped")
	}
}

func TestPrepareExistingIDConvergesWithReset(t *testing.T) {
	p := New(RunnerGoroutine, time.Second)
	first := tableConfig("p1", map[string]any{"a": "1"})
	second := tableConfig("p2", map[string]any{"b": "2"})

	if _, err := p.Prepare(first, "w1"); err != nil {
		t.Fatalf("first prepare: %v", err)
	}
	if _, err := p.Prepare(second, "w1"); err != nil {
		t.Fatalf("second prepare: %v", err)
	}

	rec, err := p.record("w1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !configsEqual(rec.config, second) {
		t.Fatalf("expected second config stored, got %+v", rec.config)
	}
	p.mu.RLock()
	n := len(p.workers)
	p.mu.RUnlock()
	if n != 1 {
		t.Fatalf("expected 1 worker record, got %d", n)
	}
}

func TestResetRestartUsesNewConfig(t *testing.T) {
	p := New(RunnerGoroutine, time.Second)
	id := mustPrepareStart(t, p, tableConfig("p", map[string]any{"prompt_d": "response_d"}), "wb")

	reset := tableConfig("new_path", map[string]any{"new_prompt_d": "new_response_d"})
	if _, err := p.Reset(id, reset); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := p.Start(id); err != nil {
		t.Fatalf("restart: %v", err)
	}
	gen, err := p.Generate(testCtx(t), id, "new_prompt_d")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.Content != "new_response_d" {
		t.Fatalf("expected new table to answer, got %q", gen.Content)
	}
	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestPrepareAgainWithTypedOptionValues(t *testing.T) {
	// Option values may carry concrete map/slice types (table.go accepts
	// map[string]string responses); comparing them must not panic and an
	// identical config must leave the running worker undisturbed.
	p := New(RunnerGoroutine, time.Second)
	cfg := types.WorkerConfig{
		ModelPath: "p",
		Backend:   types.BackendTable,
		Options: map[string]any{
			"responses": map[string]string{"prompt_a": "response_a"},
			"tags":      []string{"tutor", "draft"},
		},
	}
	id := mustPrepareStart(t, p, cfg, "w1")

	same := types.WorkerConfig{
		ModelPath: "p",
		Backend:   types.BackendTable,
		Options: map[string]any{
			"responses": map[string]string{"prompt_a": "response_a"},
			"tags":      []string{"tutor", "draft"},
		},
	}
	if _, err := p.Prepare(same, id); err != nil {
		t.Fatalf("second prepare: %v", err)
	}
	if running, _ := p.IsRunning(id); !running {
		t.Fatalf("equal-config prepare must not stop a running worker")
	}
	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestConfigsEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b types.WorkerConfig
		want bool
	}{
		{
			name: "identical nested",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"m": map[string]any{"x": 1}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"m": map[string]any{"x": 1}}},
			want: true,
		},
		{
			name: "numeric types compare by value",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"n": 1}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"n": float64(1)}},
			want: true,
		},
		{
			name: "nil vs empty options",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{}},
			want: true,
		},
		{
			name: "different nested value",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"m": map[string]any{"x": 1}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"m": map[string]any{"x": 2}}},
			want: false,
		},
		{
			name: "different model path",
			a:    types.WorkerConfig{ModelPath: "p1", Backend: types.BackendTable},
			b:    types.WorkerConfig{ModelPath: "p2", Backend: types.BackendTable},
			want: false,
		},
		{
			name: "extra key",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"a": "1"}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"a": "1", "b": "2"}},
			want: false,
		},
		{
			name: "slices compare by content",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"s": []any{"x", 1}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"s": []any{"x", 1}}},
			want: true,
		},
		{
			name: "typed string map equal",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"responses": map[string]string{"a": "b"}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"responses": map[string]string{"a": "b"}}},
			want: true,
		},
		{
			name: "typed string map different",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"responses": map[string]string{"a": "b"}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"responses": map[string]string{"a": "c"}}},
			want: false,
		},
		{
			name: "typed string slice equal",
			a:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"tags": []string{"x", "y"}}},
			b:    types.WorkerConfig{ModelPath: "p", Backend: types.BackendTable, Options: map[string]any{"tags": []string{"x", "y"}}},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := configsEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("configsEqual = %v, want %v", got, tc.want)
			}
		})
	}
}
