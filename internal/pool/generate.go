package pool

import (
	"context"
	"time"

	"llmpoold/pkg/types"
)

// Generate pushes a prompt onto the worker's input channel and blocks
// until a response arrives, the configured generation timeout elapses, or
// ctx is canceled. A timeout yields a zero Generation and an error
// classifiable with IsGenerationTimeout; it is a soft failure, not a
// worker fault. A worker that is not running is an error classifiable
// with IsWorkerNotRunning; prompts are never queued for a stopped worker.
//
// One generation may be in flight per worker. Because each worker owns a
// dedicated channel pair and processes prompts strictly in arrival order,
// sequential calls from one caller receive responses in submission order.
// Concurrent calls against the same worker race on the shared channels
// and are unsupported.
func (p *Pool) Generate(ctx context.Context, id, prompt string) (types.Generation, error) {
	rec, err := p.record(id)
	if err != nil {
		return types.Generation{}, err
	}
	p.mu.RLock()
	running, input, output := rec.running, rec.input, rec.output
	p.mu.RUnlock()
	if !running {
		return types.Generation{}, workerNotRunningError{id: id}
	}

	// One timer bounds the whole round trip, the send included, so a full
	// input channel cannot block past the generation timeout either.
	var timeout <-chan time.Time
	if p.generationTimeout > 0 {
		t := time.NewTimer(p.generationTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case input <- prompt:
	case <-timeout:
		generationsTotal.WithLabelValues("timeout").Inc()
		p.log.Warn().Str("worker", id).Dur("timeout", p.generationTimeout).Msg("generation timed out")
		p.publisher.Publish(Event{Name: "generate_timeout", WorkerID: id})
		return types.Generation{}, generationTimeoutError{id: id}
	case <-ctx.Done():
		return types.Generation{}, ctx.Err()
	}

	select {
	case gen := <-output:
		generationsTotal.WithLabelValues("ok").Inc()
		return gen, nil
	case <-timeout:
		generationsTotal.WithLabelValues("timeout").Inc()
		p.log.Warn().Str("worker", id).Dur("timeout", p.generationTimeout).Msg("generation timed out")
		p.publisher.Publish(Event{Name: "generate_timeout", WorkerID: id})
		return types.Generation{}, generationTimeoutError{id: id}
	case <-ctx.Done():
		generationsTotal.WithLabelValues("canceled").Inc()
		return types.Generation{}, ctx.Err()
	}
}
