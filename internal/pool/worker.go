package pool

import (
	"github.com/rs/zerolog"

	"llmpoold/pkg/types"
)

// runWorkerBody bridges the pool's channel protocol to a blocking model.
// It constructs the model once, then serves prompts one at a time until
// the stop signal is observed. Selecting over the stop signal bounds
// termination latency without a poll interval.
//
// A spawn or generation failure ends the body. In a goroutine-backed
// worker that death is visible only as an unresponsive worker (no exit
// status exists); the subprocess runner wraps this same loop in a child
// process that converts failure into exit status 1.
func runWorkerBody(stop <-chan struct{}, cfg types.WorkerConfig, in <-chan string, out chan<- types.Generation, spawn SpawnFunc, log zerolog.Logger) {
	model, err := spawn(cfg)
	if err != nil {
		log.Error().Err(err).Str("model_path", cfg.ModelPath).Msg("worker body: spawn failed")
		return
	}
	for {
		select {
		case <-stop:
			return
		case prompt := <-in:
			gen, err := model.Generate(prompt)
			if err != nil {
				log.Error().Err(err).Msg("worker body: generation failed")
				return
			}
			select {
			case out <- gen:
			case <-stop:
				return
			}
		}
	}
}
