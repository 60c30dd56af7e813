package pool

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"llmpoold/internal/backend"
	"llmpoold/pkg/types"
)

// Defaults applied when corresponding PoolConfig fields are unset.
const (
	// defaultJoinTimeout bounds how long Stop waits for an execution unit
	// to exit before declaring the shutdown non-graceful.
	defaultJoinTimeout = 1 * time.Second
	// defaultQueueDepth sizes the per-worker prompt and response channels.
	// The pool is single-flight per worker, so depth is headroom, not a
	// throughput knob.
	defaultQueueDepth = 16
)

// SpawnFunc turns a worker configuration into a usable model. Tests
// substitute it through PoolConfig.Spawn; the default is backend.Spawn.
type SpawnFunc func(cfg types.WorkerConfig) (backend.Model, error)

// PoolConfig encapsulates all tunables for Pool construction.
type PoolConfig struct {
	// Execution strategy for new workers. Defaults to RunnerGoroutine.
	Runner RunnerKind
	// Upper bound on how long Generate waits for a response. Zero means
	// wait indefinitely (a production deployment should always set it).
	GenerationTimeout time.Duration
	// How long Stop waits for an execution unit to exit before force-kill.
	JoinTimeout time.Duration
	// Capacity of per-worker prompt/response channels.
	QueueDepth int
	// Model factory used by goroutine-backed workers.
	Spawn SpawnFunc
	// Command line used to launch subprocess-backed workers. Defaults to
	// re-executing the current binary with the "worker" subcommand.
	WorkerCommand []string
	// Admission control consulted before a worker is started.
	Admission AdmissionPolicy
	// Receiver for lifecycle events.
	Publisher EventPublisher
	// Structured logger; a no-op logger when unset.
	Logger *zerolog.Logger
}

// NewWithConfig constructs a Pool from PoolConfig.
func NewWithConfig(cfg PoolConfig) *Pool {
	p := &Pool{
		workers:           make(map[string]*workerRecord),
		runnerKind:        cfg.Runner,
		generationTimeout: cfg.GenerationTimeout,
		joinTimeout:       cfg.JoinTimeout,
		queueDepth:        cfg.QueueDepth,
		spawn:             cfg.Spawn,
		workerCommand:     cfg.WorkerCommand,
		admission:         cfg.Admission,
		publisher:         cfg.Publisher,
		log:               zerolog.Nop(),
		startTime:         time.Now(),
	}
	if p.runnerKind == "" {
		p.runnerKind = RunnerGoroutine
	}
	if p.joinTimeout <= 0 {
		p.joinTimeout = defaultJoinTimeout
	}
	if p.queueDepth <= 0 {
		p.queueDepth = defaultQueueDepth
	}
	if p.spawn == nil {
		p.spawn = backend.Spawn
	}
	if len(p.workerCommand) == 0 {
		exe, err := os.Executable()
		if err != nil {
			exe = os.Args[0]
		}
		p.workerCommand = []string{exe, "worker"}
	}
	if p.admission == nil {
		p.admission = admitAll{}
	}
	if p.publisher == nil {
		p.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		p.log = *cfg.Logger
	}
	return p
}
