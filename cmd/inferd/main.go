package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/backend"
	"inferd/internal/config"
	"inferd/internal/httpapi"
	"inferd/internal/lifecycle"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	flags := config.Default()

	cmd := &cobra.Command{
		Use:           "inferd",
		Short:         "Ollama-compatible HTTP gateway over pluggable inference backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath, cfg); err != nil {
					return err
				}
			}
			cfg = config.ApplyEnv(cfg)
			applyFlagOverrides(cmd, &cfg, flags)
			return run(cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&configPath, "config", "", "Path to a yaml/json/toml config file")
	fl.StringVar(&flags.Host, "host", flags.Host, "Listen host")
	fl.IntVar(&flags.Port, "port", flags.Port, "Listen port")
	fl.StringVar(&flags.Backend, "backend", flags.Backend, "Inference backend: vllm, lmdeploy, llama or none")
	fl.StringVar(&flags.BackendURL, "backend-url", flags.BackendURL, "Backend server base URL (empty = backend default)")
	fl.StringVar(&flags.DefaultModel, "default-model", flags.DefaultModel, "Model used when requests omit one")
	fl.IntVar(&flags.MaxContextLen, "max-context-len", flags.MaxContextLen, "Global default context length")
	fl.IntVar(&flags.Parallelism, "parallelism", flags.Parallelism, "Global default tensor parallelism degree")
	fl.DurationVar(&flags.RequestTimeout, "request-timeout", flags.RequestTimeout, "Per-request timeout (0 disables)")
	fl.DurationVar(&flags.IdleTimeout, "idle-timeout", flags.IdleTimeout, "Idle duration before a model is evicted")
	fl.DurationVar(&flags.EvictInterval, "evict-interval", flags.EvictInterval, "How often the idle eviction scan runs")
	fl.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")

	return cmd
}

// applyFlagOverrides copies explicitly set flags onto cfg, so flags beat env
// and file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	set := map[string]func(){
		"host":            func() { cfg.Host = flags.Host },
		"port":            func() { cfg.Port = flags.Port },
		"backend":         func() { cfg.Backend = flags.Backend },
		"backend-url":     func() { cfg.BackendURL = flags.BackendURL },
		"default-model":   func() { cfg.DefaultModel = flags.DefaultModel },
		"max-context-len": func() { cfg.MaxContextLen = flags.MaxContextLen },
		"parallelism":     func() { cfg.Parallelism = flags.Parallelism },
		"request-timeout": func() { cfg.RequestTimeout = flags.RequestTimeout },
		"idle-timeout":    func() { cfg.IdleTimeout = flags.IdleTimeout },
		"evict-interval":  func() { cfg.EvictInterval = flags.EvictInterval },
		"log-level":       func() { cfg.LogLevel = flags.LogLevel },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.LogFormat == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Level(level).With().Timestamp().Logger()
}

func selectAdapter(cfg config.Config, log zerolog.Logger) backend.Adapter {
	const connectTimeout = 10 * time.Second
	switch strings.ToLower(cfg.Backend) {
	case "vllm":
		return backend.NewVLLM(cfg.BackendURL, cfg.APIKey, connectTimeout)
	case "lmdeploy":
		return backend.NewLMDeploy(cfg.BackendURL, cfg.APIKey, connectTimeout)
	case "llama":
		return backend.NewLlama(runtime.NumCPU())
	case "none", "":
		return backend.NewUnavailable("")
	default:
		log.Warn().Str("backend", cfg.Backend).Msg("unknown backend, running without one")
		return backend.NewUnavailable("unknown backend: " + cfg.Backend)
	}
}

func run(cfg config.Config) error {
	log := newLogger(cfg)
	adapter := selectAdapter(cfg, log)

	mgr := lifecycle.New(lifecycle.ManagerConfig{
		Adapter:      adapter,
		DefaultModel: cfg.DefaultModel,
		Defaults: backend.EngineConfig{
			MaxContextLen: cfg.MaxContextLen,
			MaxSequences:  cfg.MaxSequences,
			Parallelism:   cfg.Parallelism,
			GPUMemoryUtil: cfg.GPUMemoryUtil,
		},
		Logger: log,
	})

	// Preload the default model in the background; failure is not fatal.
	if cfg.DefaultModel != "" && mgr.Ready() {
		go func() {
			if _, err := mgr.Acquire(context.Background(), cfg.DefaultModel, lifecycle.Overrides{}); err != nil {
				log.Warn().Err(err).Str("model", cfg.DefaultModel).Msg("default model preload failed")
			}
		}()
	}

	// Periodic idle eviction; the manager does not self-schedule.
	evictStop := make(chan struct{})
	if cfg.EvictInterval > 0 && cfg.IdleTimeout > 0 {
		go func() {
			t := time.NewTicker(cfg.EvictInterval)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					mgr.EvictIdle(cfg.IdleTimeout)
				case <-evictStop:
					return
				}
			}
		}()
	}

	mux := httpapi.NewMux(mgr, httpapi.Options{
		Logger:          log,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		EnableStreaming: cfg.EnableStreaming,
		RequestTimeout:  cfg.RequestTimeout,
		CORSEnabled:     cfg.CORSEnabled,
		CORSOrigins:     cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("backend", adapter.Name()).
			Bool("backend_available", adapter.Available()).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		close(evictStop)
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	close(evictStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	mgr.Close()
	return nil
}
