package types

// PrepareRequest registers a worker with the pool.
type PrepareRequest struct {
	// Optional caller-supplied worker id. Generated when empty.
	ID string `json:"id,omitempty"`
	// Configuration handed to the backend factory on start.
	Config WorkerConfig `json:"config"`
	// Start the worker immediately after registering it.
	AutoStart bool `json:"auto_start,omitempty"`
}

// PrepareResponse returns the id the worker was registered under.
type PrepareResponse struct {
	ID      string `json:"id"`
	Running bool   `json:"running"`
}

// ResetRequest replaces a worker's configuration.
type ResetRequest struct {
	Config WorkerConfig `json:"config"`
}

// GenerateRequest sends one prompt to a worker.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse wraps the model output for one prompt.
type GenerateResponse struct {
	ID     string     `json:"id"`
	Result Generation `json:"result"`
}

// WorkerStatus summarizes one registered worker for /status.
type WorkerStatus struct {
	// Worker id the record is registered under.
	ID string `json:"id"`
	// Backend tag from the worker configuration.
	Backend string `json:"backend"`
	// Model locator from the worker configuration.
	ModelPath string `json:"model_path"`
	// Whether an execution unit is currently alive for this worker.
	Running bool `json:"running"`
	// Process id of the execution unit (subprocess runner only).
	PID int `json:"pid,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Workers []WorkerStatus `json:"workers"`
	// Execution strategy the pool spawns workers with.
	Runner string `json:"runner"`
	// Uptime of the pool in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
