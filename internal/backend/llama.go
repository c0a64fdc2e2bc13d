//go:build llama

package backend

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaAdapter runs models in-process via llama.cpp bindings. The model
// identifier is interpreted as a GGUF file path. Requires the 'llama' build
// tag and CGO; default builds get the stub in llama_stub.go.
type llamaAdapter struct {
	threads int
}

// NewLlama returns the in-process llama.cpp adapter.
func NewLlama(threads int) Adapter {
	if threads <= 0 {
		threads = 4
	}
	return &llamaAdapter{threads: threads}
}

func (a *llamaAdapter) Name() string    { return "llama" }
func (a *llamaAdapter) Available() bool { return true }

func (a *llamaAdapter) Load(ctx context.Context, modelID string, cfg EngineConfig) (Engine, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(modelID, llama.SetContext(cfg.MaxContextLen))
	if err != nil {
		return nil, err
	}
	return &llamaEngine{model: m, threads: a.threads}, nil
}

type llamaEngine struct {
	model   *llama.LLama
	threads int
}

func (e *llamaEngine) Complete(ctx context.Context, prompt string, p SamplingParams) (string, error) {
	return e.predict(ctx, prompt, p, nil)
}

func (e *llamaEngine) Stream(ctx context.Context, prompt string, p SamplingParams, onChunk func(string) error) error {
	_, err := e.predict(ctx, prompt, p, onChunk)
	return err
}

func (e *llamaEngine) predict(ctx context.Context, prompt string, p SamplingParams, onChunk func(string) error) (string, error) {
	if e.model == nil {
		return "", errors.New("llama model not initialized")
	}
	p = p.Normalize()
	if onChunk != nil {
		e.model.SetTokenCallback(func(tok string) bool {
			select {
			case <-ctx.Done():
				return false
			default:
			}
			return onChunk(tok) == nil
		})
		defer e.model.SetTokenCallback(nil)
	}
	opts := []llama.PredictOption{
		llama.SetTokens(p.MaxNewTokens),
		llama.SetThreads(e.threads),
		llama.SetTemperature(float32(p.Temperature)),
		llama.SetTopP(float32(p.TopP)),
		llama.SetTopK(p.TopK),
	}
	if len(p.Stop) > 0 {
		opts = append(opts, llama.SetStopWords(p.Stop...))
	}
	text, err := e.model.Predict(prompt, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}
