// Package registry maps model identifiers to their preferred engine
// configuration. It is a static lookup table with a generic fallback; it holds
// no state and is safe to call from any goroutine.
package registry

import "fmt"

// ModelConfig is the per-model configuration the registry knows about.
type ModelConfig struct {
	MaxContextLen int
	Parallelism   int
	UseCase       string
	Description   string
}

// known is the static table of curated models. Identifiers not listed here
// fall back to the generic entry from ConfigFor.
var known = map[string]ModelConfig{
	"microsoft/DialoGPT-medium": {
		MaxContextLen: 1024,
		Parallelism:   1,
		UseCase:       "chat",
		Description:   "Microsoft DialoGPT medium model for conversation",
	},
	"TheBloke/deepseek-coder-1.3b-instruct-AWQ": {
		MaxContextLen: 2048,
		Parallelism:   1,
		UseCase:       "code",
		Description:   "DeepSeek Coder 1.3B model for code generation",
	},
	"meta-llama/Llama-2-7b-chat-hf": {
		MaxContextLen: 4096,
		Parallelism:   1,
		UseCase:       "chat",
		Description:   "Llama 2 7B chat model",
	},
	"mistralai/Mistral-7B-Instruct-v0.1": {
		MaxContextLen: 8192,
		Parallelism:   1,
		UseCase:       "instruction",
		Description:   "Mistral 7B instruction-following model",
	},
	"codellama/CodeLlama-7b-Python-hf": {
		MaxContextLen: 4096,
		Parallelism:   1,
		UseCase:       "code",
		Description:   "Code Llama 7B Python specialist",
	},
}

// knownOrder fixes the iteration order for Known.
var knownOrder = []string{
	"microsoft/DialoGPT-medium",
	"TheBloke/deepseek-coder-1.3b-instruct-AWQ",
	"meta-llama/Llama-2-7b-chat-hf",
	"mistralai/Mistral-7B-Instruct-v0.1",
	"codellama/CodeLlama-7b-Python-hf",
}

// ConfigFor returns the configuration for id. Unknown identifiers get a
// generic entry so any model can still be loaded with sane defaults.
func ConfigFor(id string) ModelConfig {
	if cfg, ok := known[id]; ok {
		return cfg
	}
	return ModelConfig{
		MaxContextLen: 2048,
		Parallelism:   1,
		UseCase:       "general",
		Description:   fmt.Sprintf("Custom model: %s", id),
	}
}

// IsKnown reports whether id is in the curated table.
func IsKnown(id string) bool {
	_, ok := known[id]
	return ok
}

// Known returns the curated model identifiers in a stable order.
func Known() []string {
	out := make([]string, len(knownOrder))
	copy(out, knownOrder)
	return out
}
