package types

// Backend identifies a model runtime implementation. The set is closed:
// unknown values are rejected when the model is constructed, not at
// generation time.
type Backend string

const (
	// BackendTable is a deterministic prompt->response lookup table.
	// Intended for tests and wiring checks; never loads anything heavy.
	BackendTable Backend = "table"
	// BackendLlamaServer talks to an OpenAI-compatible llama.cpp server
	// over HTTP (options: base_url, api_key, max_tokens, temperature).
	BackendLlamaServer Backend = "llamaserver"
)

// WorkerConfig describes how to construct one model instance. The pool
// treats it as opaque data: it is handed verbatim to the backend factory
// and compared structurally (recursively over nested maps) on reset.
type WorkerConfig struct {
	// Path or locator of the model content (file path, URL, alias).
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	// Which runtime to construct. Required.
	Backend Backend `json:"backend" yaml:"backend" toml:"backend"`
	// Free-form loader parameters, interpreted by the backend.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// Generation is one model response round trip.
type Generation struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Model represents a discoverable model file on disk.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}
