// Package backend abstracts the inference engine behind the gateway. The
// lifecycle manager only sees the Adapter/Engine contract; concrete
// implementations talk to a vLLM or LMDeploy server over HTTP, or run
// llama.cpp in-process when built with the 'llama' tag.
package backend

import "context"

// Adapter wraps one inference runtime. Available reports a permanent
// capability: when false, no model can ever be loaded through this adapter
// (the runtime is missing, not merely busy or misconfigured).
type Adapter interface {
	// Name identifies the backend ("vllm", "lmdeploy", "llama", "none").
	Name() string
	// Available reports whether the runtime can serve load requests at all.
	Available() bool
	// Load constructs an engine for the given model. It may block for a long
	// time and must honor ctx cancellation.
	Load(ctx context.Context, modelID string, cfg EngineConfig) (Engine, error)
}

// Engine is a loaded model ready to generate.
type Engine interface {
	// Complete runs a single-shot generation and returns the full text.
	Complete(ctx context.Context, prompt string, p SamplingParams) (string, error)
	// Stream runs an incremental generation, invoking onChunk for each text
	// fragment. Implementations must return when ctx is canceled.
	Stream(ctx context.Context, prompt string, p SamplingParams, onChunk func(string) error) error
	// Close releases resources held by the engine.
	Close() error
}

// EngineConfig carries the effective per-model engine configuration resolved
// by the lifecycle manager (override > registry > global default).
type EngineConfig struct {
	MaxContextLen int
	MaxSequences  int
	Parallelism   int
	GPUMemoryUtil float64
}

// SamplingParams are the generation parameters passed per request.
type SamplingParams struct {
	Temperature  float64
	TopP         float64
	TopK         int
	MaxNewTokens int
	Stop         []string
}

// Normalize fills unset sampling fields with the server defaults.
func (p SamplingParams) Normalize() SamplingParams {
	if p.Temperature <= 0 {
		p.Temperature = 0.7
	}
	if p.TopP <= 0 {
		p.TopP = 0.9
	}
	if p.TopK <= 0 {
		p.TopK = 40
	}
	if p.MaxNewTokens <= 0 {
		p.MaxNewTokens = 512
	}
	return p
}
