package pool

import "llmpoold/pkg/types"

// Start spawns an execution unit for a registered worker. No-op when the
// worker is already running. A fresh stop signal and fresh channels are
// created for every run; the worker body constructs the model as soon as
// the unit is scheduled, which may block for a long time inside the unit
// without blocking this call.
//
// Starts on different ids are serialized internally: the admission policy
// runs with no other start in flight, so policies counting running workers
// (MaxWorkersPolicy) cannot be raced past their limit.
func (p *Pool) Start(id string) error {
	rec, err := p.record(id)
	if err != nil {
		return err
	}
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if rec.running {
		return nil
	}
	if err := p.admission.Admit(rec.config); err != nil {
		p.publisher.Publish(Event{Name: "admission_denied", WorkerID: id, Fields: map[string]any{"reason": err.Error()}})
		return admissionDeniedError{id: id, reason: err.Error()}
	}

	p.mu.Lock()
	rec.stop = make(chan struct{})
	rec.input = make(chan string, p.queueDepth)
	rec.output = make(chan types.Generation, p.queueDepth)
	rec.unit = p.newRunner()
	p.mu.Unlock()

	if err := rec.unit.Start(rec); err != nil {
		p.mu.Lock()
		rec.unit = nil
		p.mu.Unlock()
		return err
	}
	p.mu.Lock()
	rec.running = true
	p.mu.Unlock()

	workerStartsTotal.WithLabelValues(string(p.runnerKind)).Inc()
	workersRunning.Inc()
	p.log.Info().Str("worker", id).Str("runner", string(p.runnerKind)).Int("pid", rec.unit.PID()).Msg("worker started")
	p.publisher.Publish(Event{Name: "start", WorkerID: id, Fields: map[string]any{"pid": rec.unit.PID()}})
	return nil
}

// Stop signals the worker to terminate and joins its execution unit with
// a bounded wait. A unit that did not exit cleanly within the join timeout
// is forcibly killed (subprocess runner; goroutines cannot be killed and
// are left to drain). The worker is marked not-running regardless of how
// termination went. Unconsumed prompts are discarded with the channels.
func (p *Pool) Stop(id string) error {
	rec, err := p.record(id)
	if err != nil {
		return err
	}
	if !rec.running {
		return nil
	}
	unit := rec.unit
	close(rec.stop)
	clean := unit.Join(p.joinTimeout)
	outcome := "clean"
	if !clean {
		unit.Kill()
		outcome = "killed"
		p.log.Warn().Str("worker", id).Msg("worker did not exit cleanly; killed")
		p.publisher.Publish(Event{Name: "abnormal_exit", WorkerID: id})
	}

	p.mu.Lock()
	rec.running = false
	rec.unit = nil
	p.mu.Unlock()

	workerStopsTotal.WithLabelValues(outcome).Inc()
	workersRunning.Dec()
	p.log.Info().Str("worker", id).Str("outcome", outcome).Msg("worker stopped")
	p.publisher.Publish(Event{Name: "stop", WorkerID: id, Fields: map[string]any{"outcome": outcome}})
	return nil
}
