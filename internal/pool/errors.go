package pool

// workerNotFoundError signals a lookup against an unregistered worker id.
type workerNotFoundError struct{ id string }

func (e workerNotFoundError) Error() string { return "worker not found: " + e.id }

// IsWorkerNotFound reports whether err indicates an unknown worker id.
func IsWorkerNotFound(err error) bool {
	_, ok := err.(workerNotFoundError)
	return ok
}

// workerNotRunningError signals a generation request against a worker
// with no live execution unit. Prompts are never queued for a stopped
// worker; the caller must start it first.
type workerNotRunningError struct{ id string }

func (e workerNotRunningError) Error() string { return "worker not running: " + e.id }

// IsWorkerNotRunning reports whether err indicates a generation request
// against a stopped worker.
func IsWorkerNotRunning(err error) bool {
	_, ok := err.(workerNotRunningError)
	return ok
}

// generationTimeoutError signals that no response arrived within the
// configured generation timeout. A timed-out generation is a soft failure:
// the worker keeps its prompt queued and the caller decides what to do.
type generationTimeoutError struct{ id string }

func (e generationTimeoutError) Error() string { return "generation timed out: " + e.id }

// IsGenerationTimeout reports whether err indicates a missed/slow
// generation rather than a hard failure.
func IsGenerationTimeout(err error) bool {
	_, ok := err.(generationTimeoutError)
	return ok
}

// admissionDeniedError signals that the admission policy refused to start
// a worker (e.g. insufficient resources).
type admissionDeniedError struct{ id, reason string }

func (e admissionDeniedError) Error() string {
	return "admission denied for worker " + e.id + ": " + e.reason
}

// IsAdmissionDenied reports whether err indicates the admission policy
// refused a start.
func IsAdmissionDenied(err error) bool {
	_, ok := err.(admissionDeniedError)
	return ok
}
