package backend

import "time"

// DefaultLMDeployBaseURL is where `lmdeploy serve api_server` listens.
const DefaultLMDeployBaseURL = "http://127.0.0.1:23333"

// NewLMDeploy returns an adapter for an LMDeploy api_server. LMDeploy speaks
// the same OpenAI-compatible surface as vLLM, so only identity and the
// default endpoint differ.
func NewLMDeploy(baseURL, apiKey string, connectTimeout time.Duration) Adapter {
	if baseURL == "" {
		baseURL = DefaultLMDeployBaseURL
	}
	return newOpenAIAdapter("lmdeploy", baseURL, apiKey, connectTimeout)
}
