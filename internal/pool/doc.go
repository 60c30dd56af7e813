// Package pool manages the lifecycle of language-model worker instances
// and multiplexes generation requests to them. It is structured into small
// files by concern:
//
//   - pool.go: core Pool type, record map, lookups, StopAll, Status.
//   - config.go: PoolConfig and package defaults; NewWithConfig applies defaults.
//   - prepare.go: Prepare and Reset (configuration replacement).
//   - lifecycle.go: Start and Stop transitions.
//   - generate.go: synchronous request/response generation.
//   - worker.go: the worker body run inside goroutine-backed units.
//   - runner.go: the execution-unit interface and runner kinds.
//   - runner_goroutine.go / runner_subprocess.go: the two strategies.
//   - equal.go: recursive configuration equality for Reset.
//   - admission.go: pluggable admission control consulted by Start.
//   - errors.go: typed errors and helpers (IsWorkerNotFound, IsGenerationTimeout).
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus counters and gauges.
//
// Concurrency contract: pool methods are expected to be driven by a single
// controlling goroutine per worker id. The record map itself is guarded so
// different ids may be operated on from different goroutines, but
// concurrent calls against the same id (for example Generate raced with
// Stop) are outside the contract. Each worker runs as an independent
// execution unit and communicates with the pool only through its input and
// output channels and its stop signal.
package pool
