package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmpoold/internal/pool"
	"llmpoold/pkg/types"
)

// Service defines the pool methods required by the HTTP API layer.
type Service interface {
	Prepare(cfg types.WorkerConfig, id string) (string, error)
	Reset(id string, cfg types.WorkerConfig) (string, error)
	Start(id string) error
	Stop(id string) error
	StopAll() error
	IsRunning(id string) (bool, error)
	Generate(ctx context.Context, id, prompt string) (types.Generation, error)
	Status() types.StatusResponse
}

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// NewMux builds the HTTP router over the pool service.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Log-Level"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/workers", func(w http.ResponseWriter, r *http.Request) {
		var req types.PrepareRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		id, err := svc.Prepare(req.Config, req.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if req.AutoStart {
			if err := svc.Start(id); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		running, err := svc.IsRunning(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, types.PrepareResponse{ID: id, Running: running})
	})

	r.Get("/workers/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := svc.IsRunning(id); err != nil {
			writeServiceError(w, err)
			return
		}
		for _, ws := range svc.Status().Workers {
			if ws.ID == id {
				writeJSON(w, http.StatusOK, ws)
				return
			}
		}
		writeJSONError(w, http.StatusNotFound, "worker not found: "+id)
	})

	r.Post("/workers/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Start(id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "running": true})
	})

	r.Post("/workers/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Stop(id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "running": false})
	})

	r.Post("/workers/{id}/reset", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req types.ResetRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if _, err := svc.Reset(id, req.Config); err != nil {
			writeServiceError(w, err)
			return
		}
		running, err := svc.IsRunning(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.PrepareResponse{ID: id, Running: running})
	})

	r.Post("/workers/{id}/generate", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req types.GenerateRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("worker", id)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate start")
		}
		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		gen, err := svc.Generate(joinedCtx, id, req.Prompt)
		if err != nil {
			// Client disconnect or shutdown: nothing useful to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, err)
			if lvl >= LevelInfo && zlog != nil {
				z := zlog.Info().Dur("dur", time.Since(start))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Err(err).Msg("generate end")
			}
			return
		}
		writeJSON(w, http.StatusOK, types.GenerateResponse{ID: id, Result: gen})
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate end")
		}
	})

	r.Post("/stopall", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.StopAll(); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// decodeJSONBody enforces content type and size limits, decoding into v.
// Writes the error response itself and reports success.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

// writeServiceError maps well-known pool errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case pool.IsWorkerNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case pool.IsWorkerNotRunning(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case pool.IsGenerationTimeout(err):
		IncrementTimeout("generation")
		writeJSONError(w, http.StatusGatewayTimeout, err.Error())
	case pool.IsAdmissionDenied(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
