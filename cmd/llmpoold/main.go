package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmpoold/internal/config"
	"llmpoold/internal/httpapi"
	"llmpoold/internal/pool"
	"llmpoold/internal/registry"
	"llmpoold/internal/worker"
	"llmpoold/pkg/types"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "llmpoold",
		Short:         "LLM worker instance pool daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildServeCmd())
	root.AddCommand(buildWorkerCmd())
	return root
}

func buildServeCmd() *cobra.Command {
	var (
		addr         string
		configPath   string
		modelsDir    string
		runnerKind   string
		genTimeoutMS int
		logLevel     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool with its HTTP control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel)

			var cfg config.Config
			if configPath != "" {
				c, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = c
			}
			// Flags win over file values when set explicitly.
			if cmd.Flags().Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("models-dir") || cfg.ModelsDir == "" {
				cfg.ModelsDir = modelsDir
			}
			if cmd.Flags().Changed("runner") || cfg.Runner == "" {
				cfg.Runner = runnerKind
			}
			if cmd.Flags().Changed("generation-timeout-ms") || cfg.GenerationTimeoutMS == 0 {
				cfg.GenerationTimeoutMS = genTimeoutMS
			}
			if cfg.DefaultBackend == "" {
				cfg.DefaultBackend = string(types.BackendLlamaServer)
			}

			var admission pool.AdmissionPolicy
			limit := &pool.MaxWorkersPolicy{Max: cfg.MaxWorkers}
			if cfg.MaxWorkers > 0 {
				admission = limit
			}
			p := pool.NewWithConfig(pool.PoolConfig{
				Runner:            pool.ParseRunnerKind(cfg.Runner),
				GenerationTimeout: time.Duration(cfg.GenerationTimeoutMS) * time.Millisecond,
				QueueDepth:        cfg.QueueDepth,
				Admission:         admission,
				Logger:            &logger,
			})
			limit.Pool = p
			defer func() {
				if err := p.StopAll(); err != nil {
					logger.Error().Err(err).Msg("stop all workers")
				}
			}()

			if err := prepareConfigured(p, cfg, logger); err != nil {
				return err
			}

			httpapi.SetLogger(logger)
			baseCtx, baseCancel := context.WithCancel(context.Background())
			defer baseCancel()
			httpapi.SetBaseContext(baseCtx)

			srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(p)}
			go func() {
				logger.Info().Str("addr", cfg.Addr).Str("runner", cfg.Runner).Msg("llmpoold listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server error")
				}
			}()

			// Graceful shutdown (Ctrl+C / SIGTERM)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			baseCancel()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("LLMPOOLD_ADDR", ":8090"), "HTTP listen address, e.g. :8090")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (.yaml/.json/.toml)")
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	cmd.Flags().StringVar(&runnerKind, "runner", string(pool.RunnerGoroutine), "Worker execution strategy: goroutine|subprocess")
	cmd.Flags().IntVar(&genTimeoutMS, "generation-timeout-ms", 120_000, "Generate wait bound in milliseconds (0=wait forever)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	return cmd
}

// buildWorkerCmd is the hidden child-process entry used by the subprocess
// runner. It reads its configuration from the environment and serves the
// NDJSON protocol on stdin/stdout.
func buildWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgJSON := os.Getenv(worker.ConfigEnv)
			if cfgJSON == "" {
				return fmt.Errorf("%s is not set", worker.ConfigEnv)
			}
			// SIGTERM is a clean shutdown request from the parent.
			term := make(chan os.Signal, 1)
			signal.Notify(term, syscall.SIGTERM)
			go func() {
				<-term
				os.Exit(0)
			}()
			os.Exit(worker.Run(cfgJSON, os.Stdin, os.Stdout, os.Stderr))
			return nil
		},
	}
}

// prepareConfigured registers workers from the config file and the models
// directory. Discovered models are prepared, not started; callers start
// them through the API when needed.
func prepareConfigured(p *pool.Pool, cfg config.Config, logger zerolog.Logger) error {
	for id, wc := range cfg.Workers {
		if wc.Backend == "" {
			wc.Backend = types.Backend(cfg.DefaultBackend)
		}
		if _, err := p.Prepare(wc, id); err != nil {
			return fmt.Errorf("prepare worker %q: %w", id, err)
		}
	}
	if cfg.ModelsDir == "" {
		return nil
	}
	models, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("scan models dir: %w", err)
	}
	for id, wc := range registry.WorkerConfigs(models, types.Backend(cfg.DefaultBackend), nil) {
		if _, err := p.Prepare(wc, id); err != nil {
			return fmt.Errorf("prepare worker %q: %w", id, err)
		}
	}
	logger.Info().Int("models", len(models)).Str("dir", cfg.ModelsDir).Msg("registry scanned")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
