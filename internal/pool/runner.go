package pool

import "time"

// RunnerKind selects the execution strategy workers are spawned with.
type RunnerKind string

const (
	// RunnerGoroutine runs worker bodies on goroutines: low overhead,
	// suited to I/O-bound backends. A failed body is indistinguishable
	// from a cleanly stopped one (no exit status exists).
	RunnerGoroutine RunnerKind = "goroutine"
	// RunnerSubprocess runs worker bodies in child processes: real
	// isolation, and abnormal termination is observable via the exit
	// status at stop time.
	RunnerSubprocess RunnerKind = "subprocess"
)

// ParseRunnerKind maps a config string to a RunnerKind, defaulting to
// goroutine-backed workers.
func ParseRunnerKind(s string) RunnerKind {
	if RunnerKind(s) == RunnerSubprocess {
		return RunnerSubprocess
	}
	return RunnerGoroutine
}

// runner is one execution unit hosting a worker body.
type runner interface {
	// Start launches the body for rec. The record's stop signal and
	// channels must be fresh for this run.
	Start(rec *workerRecord) error
	// Join waits up to timeout for the unit to exit after the stop signal
	// was set, reporting whether the exit was clean. Goroutine units are
	// always clean once joined; subprocess units are clean only on exit
	// status zero within the timeout.
	Join(timeout time.Duration) bool
	// Kill forcibly terminates the unit. No-op for goroutines.
	Kill()
	// PID returns the operating-system process id, or zero for
	// goroutine-backed units.
	PID() int
}

func (p *Pool) newRunner() runner {
	switch p.runnerKind {
	case RunnerSubprocess:
		return &subprocessRunner{command: p.workerCommand, log: p.log}
	default:
		return &goroutineRunner{spawn: p.spawn, log: p.log}
	}
}
