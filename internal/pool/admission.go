package pool

import (
	"errors"

	"llmpoold/pkg/types"
)

// AdmissionPolicy decides whether a worker may be started with the given
// configuration. It is the extension point for resource validation
// (memory, accelerator availability) ahead of spawning heavyweight model
// loads; the default admits everything.
type AdmissionPolicy interface {
	// Admit returns nil to allow the start, or an error describing why
	// the worker cannot be admitted.
	Admit(cfg types.WorkerConfig) error
}

// AdmissionFunc adapts a function to an AdmissionPolicy.
type AdmissionFunc func(cfg types.WorkerConfig) error

func (f AdmissionFunc) Admit(cfg types.WorkerConfig) error { return f(cfg) }

// admitAll is the default policy.
type admitAll struct{}

func (admitAll) Admit(types.WorkerConfig) error { return nil }

// MaxWorkersPolicy admits starts while fewer than Max workers are running.
// Pool may be assigned after construction (the pool itself takes the
// policy at build time).
type MaxWorkersPolicy struct {
	Pool *Pool
	Max  int
}

func (a *MaxWorkersPolicy) Admit(types.WorkerConfig) error {
	if a.Max <= 0 || a.Pool == nil {
		return nil
	}
	a.Pool.mu.RLock()
	running := 0
	for _, rec := range a.Pool.workers {
		if rec.running {
			running++
		}
	}
	a.Pool.mu.RUnlock()
	if running >= a.Max {
		return errors.New("worker limit reached")
	}
	return nil
}
