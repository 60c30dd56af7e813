// Package worker implements the child-process side of subprocess-backed
// pool workers. The parent serializes the worker configuration into the
// LLMPOOLD_WORKER_CONFIG environment variable and speaks NDJSON over the
// child's stdin/stdout: one Request line in, one Response line out, in
// order. The child exits 0 on a clean shutdown (stdin EOF or SIGTERM) and
// 1 when the factory or a generation fails.
package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"llmpoold/internal/backend"
	"llmpoold/pkg/types"
)

// ConfigEnv carries the JSON-encoded worker configuration to the child.
const ConfigEnv = "LLMPOOLD_WORKER_CONFIG"

// Request is one prompt sent from the pool to the child.
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is one model result sent from the child to the pool.
type Response struct {
	Result types.Generation `json:"result"`
}

// Run executes the worker loop: construct the model once, then answer
// prompts from in until EOF. Returns the process exit code. Diagnostics go
// to errw (the parent captures a stderr tail for failures).
func Run(cfgJSON string, in io.Reader, out io.Writer, errw io.Writer) int {
	var cfg types.WorkerConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		fmt.Fprintf(errw, "worker: decode config: %v\n", err)
		return 1
	}
	model, err := backend.Spawn(cfg)
	if err != nil {
		fmt.Fprintf(errw, "worker: spawn model: %v\n", err)
		return 1
	}

	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return 0
			}
			fmt.Fprintf(errw, "worker: decode request: %v\n", err)
			return 1
		}
		gen, err := model.Generate(req.Prompt)
		if err != nil {
			fmt.Fprintf(errw, "worker: generate: %v\n", err)
			return 1
		}
		if err := enc.Encode(Response{Result: gen}); err != nil {
			fmt.Fprintf(errw, "worker: encode response: %v\n", err)
			return 1
		}
	}
}
