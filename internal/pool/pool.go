package pool

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llmpoold/pkg/types"
)

// Pool owns zero or more worker records and provides lifecycle transitions
// plus synchronous generation, shielding callers from whether execution
// units are goroutines or subprocesses.
type Pool struct {
	mu      sync.RWMutex
	workers map[string]*workerRecord

	// startMu serializes Start across worker ids so the admission policy
	// observes a stable running count while it decides.
	startMu sync.Mutex

	runnerKind        RunnerKind
	generationTimeout time.Duration
	joinTimeout       time.Duration
	queueDepth        int
	spawn             SpawnFunc
	workerCommand     []string
	admission         AdmissionPolicy
	publisher         EventPublisher
	log               zerolog.Logger
	startTime         time.Time
}

// workerRecord is the pool's view of one registered worker. The stop
// signal and both channels are recreated on every start so a run never
// observes traffic from a previous one.
type workerRecord struct {
	id      string
	config  types.WorkerConfig
	running bool
	stop    chan struct{}
	input   chan string
	output  chan types.Generation
	unit    runner
}

// New constructs a Pool with the given execution strategy and generation
// timeout, using package defaults for everything else.
func New(kind RunnerKind, generationTimeout time.Duration) *Pool {
	return NewWithConfig(PoolConfig{
		Runner:            kind,
		GenerationTimeout: generationTimeout,
	})
}

// record looks up a worker record, translating a map miss into the typed
// not-found error. Lookup failures always propagate to the caller.
func (p *Pool) record(id string) (*workerRecord, error) {
	p.mu.RLock()
	rec := p.workers[id]
	p.mu.RUnlock()
	if rec == nil {
		return nil, workerNotFoundError{id: id}
	}
	return rec, nil
}

// IsRunning reports whether the worker's execution unit is alive. Unknown
// ids are an error: callers must register a worker before querying it.
func (p *Pool) IsRunning(id string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec := p.workers[id]
	if rec == nil {
		return false, workerNotFoundError{id: id}
	}
	return rec.running, nil
}

// StopAll stops every registered worker. Safe on an empty pool.
func (p *Pool) StopAll() error {
	p.mu.RLock()
	ids := make([]string, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	p.mu.RUnlock()
	for _, id := range ids {
		if err := p.Stop(id); err != nil {
			return err
		}
	}
	return nil
}

// Status builds a status response for all registered workers.
func (p *Pool) Status() types.StatusResponse {
	p.mu.RLock()
	defer p.mu.RUnlock()
	resp := types.StatusResponse{
		Runner:         string(p.runnerKind),
		UptimeSeconds:  int64(time.Since(p.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	resp.Workers = make([]types.WorkerStatus, 0, len(p.workers))
	for _, rec := range p.workers {
		ws := types.WorkerStatus{
			ID:        rec.id,
			Backend:   string(rec.config.Backend),
			ModelPath: rec.config.ModelPath,
			Running:   rec.running,
		}
		if rec.unit != nil {
			ws.PID = rec.unit.PID()
		}
		resp.Workers = append(resp.Workers, ws)
	}
	return resp
}
