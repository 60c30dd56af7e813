package pool

import (
	"os"
	"testing"
	"time"

	"llmpoold/pkg/types"
)

// subprocessPool builds a pool whose workers re-execute the test binary;
// TestMain routes the child into the worker loop.
func subprocessPool(t *testing.T, timeout time.Duration) *Pool {
	t.Helper()
	p := NewWithConfig(PoolConfig{
		Runner:            RunnerSubprocess,
		GenerationTimeout: timeout,
		WorkerCommand:     []string{os.Args[0]},
	})
	t.Cleanup(func() { p.StopAll() })
	return p
}

func TestSubprocessGenerateRoundTrip(t *testing.T) {
	p := subprocessPool(t, 10*time.Second)
	id := mustPrepareStart(t, p, tableConfig("p", map[string]any{
		"prompt_a": "response_a",
		"prompt_b": "response_b",
	}), "w1")

	first, err := p.Generate(testCtx(t), id, "prompt_a")
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := p.Generate(testCtx(t), id, "prompt_b")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.Content != "response_a" || second.Content != "response_b" {
		t.Fatalf("unexpected responses: %q, %q", first.Content, second.Content)
	}
}

func TestSubprocessStatusReportsPID(t *testing.T) {
	p := subprocessPool(t, 10*time.Second)
	id := mustPrepareStart(t, p, tableConfig("p", map[string]any{"hi": "ho"}), "w1")

	var st types.WorkerStatus
	for _, ws := range p.Status().Workers {
		if ws.ID == id {
			st = ws
		}
	}
	if st.ID != id {
		t.Fatalf("worker %s missing from status", id)
	}
	if !st.Running || st.PID <= 0 {
		t.Fatalf("expected running worker with a pid, got running=%v pid=%d", st.Running, st.PID)
	}
}

func TestSubprocessCleanStop(t *testing.T) {
	pub := NewMemoryPublisher()
	p := NewWithConfig(PoolConfig{
		Runner:            RunnerSubprocess,
		GenerationTimeout: 10 * time.Second,
		WorkerCommand:     []string{os.Args[0]},
		Publisher:         pub,
	})
	id := mustPrepareStart(t, p, tableConfig("p", map[string]any{"hi": "ho"}), "w1")

	if _, err := p.Generate(testCtx(t), id, "hi"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if running, _ := p.IsRunning(id); running {
		t.Fatalf("expected not running after stop")
	}
	// Closing stdin is the cooperative stop; the child exits zero and the
	// join must be clean.
	for _, e := range pub.Events() {
		if e.Name == "abnormal_exit" {
			t.Fatalf("clean stop published an abnormal_exit event")
		}
		if e.Name == "stop" {
			if outcome := e.Fields["outcome"]; outcome != "clean" {
				t.Fatalf("expected clean stop outcome, got %v", outcome)
			}
		}
	}
}

func TestSubprocessKilledWhenChildIgnoresStop(t *testing.T) {
	pub := NewMemoryPublisher()
	// A command that neither reads stdin nor exits on its closure misses
	// the join timeout and must be force-killed.
	p := NewWithConfig(PoolConfig{
		Runner:        RunnerSubprocess,
		JoinTimeout:   100 * time.Millisecond,
		WorkerCommand: []string{"sleep", "60"},
		Publisher:     pub,
	})
	id := mustPrepareStart(t, p, tableConfig("p", map[string]any{"hi": "ho"}), "stuck")

	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if running, _ := p.IsRunning(id); running {
		t.Fatalf("expected not running after forced stop")
	}

	killed, abnormal := false, false
	for _, e := range pub.Events() {
		if e.Name == "stop" && e.WorkerID == id && e.Fields["outcome"] == "killed" {
			killed = true
		}
		if e.Name == "abnormal_exit" && e.WorkerID == id {
			abnormal = true
		}
	}
	if !killed || !abnormal {
		t.Fatalf("expected killed stop outcome and abnormal_exit event; got %v", eventNames(pub.Events()))
	}
}

func TestSubprocessChildFailureIsAbnormal(t *testing.T) {
	pub := NewMemoryPublisher()
	p := NewWithConfig(PoolConfig{
		Runner:            RunnerSubprocess,
		GenerationTimeout: 500 * time.Millisecond,
		JoinTimeout:       2 * time.Second,
		WorkerCommand:     []string{os.Args[0]},
		Publisher:         pub,
	})
	t.Cleanup(func() { p.StopAll() })

	// A config the child cannot spawn a model from makes it exit nonzero
	// before serving any prompt.
	cfg := types.WorkerConfig{ModelPath: "p", Backend: types.Backend("bogus")}
	id := mustPrepareStart(t, p, cfg, "broken")

	if _, err := p.Generate(testCtx(t), id, "hi"); !IsGenerationTimeout(err) {
		t.Fatalf("expected generation timeout from dead child, got %v", err)
	}
	if err := p.Stop(id); err != nil {
		t.Fatalf("stop: %v", err)
	}

	abnormal := false
	for _, e := range pub.Events() {
		if e.Name == "abnormal_exit" && e.WorkerID == id {
			abnormal = true
		}
	}
	if !abnormal {
		t.Fatalf("expected abnormal_exit event for failing child; got %v", eventNames(pub.Events()))
	}
}
