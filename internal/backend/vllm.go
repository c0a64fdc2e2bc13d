package backend

import "time"

// DefaultVLLMBaseURL is where a locally started vLLM OpenAI server listens.
const DefaultVLLMBaseURL = "http://127.0.0.1:8000"

// NewVLLM returns an adapter for a vLLM server's OpenAI-compatible API.
func NewVLLM(baseURL, apiKey string, connectTimeout time.Duration) Adapter {
	if baseURL == "" {
		baseURL = DefaultVLLMBaseURL
	}
	return newOpenAIAdapter("vllm", baseURL, apiKey, connectTimeout)
}
