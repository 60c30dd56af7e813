package pool

import (
	"github.com/google/uuid"

	"llmpoold/pkg/types"
)

// Prepare registers a worker with the given configuration and returns its
// id. When id is empty a fresh one is generated. If the id is already
// registered, Prepare converges with Reset instead of creating a
// duplicate, so preparing twice with differing configurations behaves like
// a prepare followed by a reset.
func (p *Pool) Prepare(cfg types.WorkerConfig, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	p.mu.Lock()
	if _, exists := p.workers[id]; exists {
		p.mu.Unlock()
		return p.Reset(id, cfg)
	}
	p.workers[id] = &workerRecord{id: id, config: cfg}
	p.mu.Unlock()

	p.log.Debug().Str("worker", id).Str("backend", string(cfg.Backend)).Msg("worker prepared")
	p.publisher.Publish(Event{Name: "prepare", WorkerID: id})
	return id, nil
}

// Reset replaces a worker's configuration. Equal configurations are a
// no-op, leaving a running worker undisturbed. A changed configuration
// stops the worker first; it is guaranteed not-running afterwards and
// must be started again by the caller.
func (p *Pool) Reset(id string, cfg types.WorkerConfig) (string, error) {
	rec, err := p.record(id)
	if err != nil {
		return "", err
	}
	if configsEqual(rec.config, cfg) {
		return id, nil
	}
	if rec.running {
		if err := p.Stop(id); err != nil {
			return "", err
		}
	}
	p.mu.Lock()
	rec.config = cfg
	p.mu.Unlock()

	p.log.Debug().Str("worker", id).Msg("worker configuration replaced")
	p.publisher.Publish(Event{Name: "reset", WorkerID: id})
	return id, nil
}
