// Package config holds runtime configuration for inferd. Values come from,
// in increasing precedence: built-in defaults, an optional config file,
// INFERD_* environment variables, and command-line flags (applied by main).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime parameters for the daemon.
type Config struct {
	Host string `json:"host" yaml:"host" toml:"host"`
	Port int    `json:"port" yaml:"port" toml:"port"`

	// Backend selects the adapter: "vllm", "lmdeploy", "llama" or "none".
	Backend    string `json:"backend" yaml:"backend" toml:"backend"`
	BackendURL string `json:"backend_url" yaml:"backend_url" toml:"backend_url"`
	APIKey     string `json:"api_key" yaml:"api_key" toml:"api_key"`

	DefaultModel  string  `json:"default_model" yaml:"default_model" toml:"default_model"`
	MaxContextLen int     `json:"max_context_len" yaml:"max_context_len" toml:"max_context_len"`
	MaxSequences  int     `json:"max_sequences" yaml:"max_sequences" toml:"max_sequences"`
	Parallelism   int     `json:"parallelism" yaml:"parallelism" toml:"parallelism"`
	GPUMemoryUtil float64 `json:"gpu_memory_util" yaml:"gpu_memory_util" toml:"gpu_memory_util"`

	RequestTimeout  time.Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	EnableStreaming bool          `json:"enable_streaming" yaml:"enable_streaming" toml:"enable_streaming"`
	EnableBatching  bool          `json:"enable_batching" yaml:"enable_batching" toml:"enable_batching"`
	BatchSize       int           `json:"batch_size" yaml:"batch_size" toml:"batch_size"`

	IdleTimeout   time.Duration `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
	EvictInterval time.Duration `json:"evict_interval" yaml:"evict_interval" toml:"evict_interval"`

	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Default returns the built-in configuration. Port 11435 is Ollama's + 1, the
// convention the backends this daemon fronts already use.
func Default() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            11435,
		Backend:         "vllm",
		BackendURL:      "", // resolved per backend when empty
		DefaultModel:    "TheBloke/deepseek-coder-1.3b-instruct-AWQ",
		MaxContextLen:   2048,
		MaxSequences:    256,
		Parallelism:     1,
		GPUMemoryUtil:   0.9,
		RequestTimeout:  300 * time.Second,
		EnableStreaming: true,
		EnableBatching:  true,
		BatchSize:       8,
		IdleTimeout:     time.Hour,
		EvictInterval:   5 * time.Minute,
		MaxBodyBytes:    1 << 20,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// ApplyEnv overlays INFERD_* environment variables onto cfg.
func ApplyEnv(cfg Config) Config {
	envStr(&cfg.Host, "INFERD_HOST")
	envInt(&cfg.Port, "INFERD_PORT")
	envStr(&cfg.Backend, "INFERD_BACKEND")
	envStr(&cfg.BackendURL, "INFERD_BACKEND_URL")
	envStr(&cfg.APIKey, "INFERD_API_KEY")
	envStr(&cfg.DefaultModel, "INFERD_DEFAULT_MODEL")
	envInt(&cfg.MaxContextLen, "INFERD_MAX_CONTEXT_LEN")
	envInt(&cfg.MaxSequences, "INFERD_MAX_SEQUENCES")
	envInt(&cfg.Parallelism, "INFERD_PARALLELISM")
	envFloat(&cfg.GPUMemoryUtil, "INFERD_GPU_MEMORY_UTIL")
	envDur(&cfg.RequestTimeout, "INFERD_REQUEST_TIMEOUT")
	envBool(&cfg.EnableStreaming, "INFERD_ENABLE_STREAMING")
	envBool(&cfg.EnableBatching, "INFERD_ENABLE_BATCHING")
	envInt(&cfg.BatchSize, "INFERD_BATCH_SIZE")
	envDur(&cfg.IdleTimeout, "INFERD_IDLE_TIMEOUT")
	envDur(&cfg.EvictInterval, "INFERD_EVICT_INTERVAL")
	envInt64(&cfg.MaxBodyBytes, "INFERD_MAX_BODY_BYTES")
	envStr(&cfg.LogLevel, "INFERD_LOG_LEVEL")
	envStr(&cfg.LogFormat, "INFERD_LOG_FORMAT")
	envBool(&cfg.CORSEnabled, "INFERD_CORS_ENABLED")
	if v, ok := os.LookupEnv("INFERD_CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitCSV(v)
	}
	return cfg
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func envStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// envDur accepts Go duration strings ("90s", "1h") or bare seconds ("300").
func envDur(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
