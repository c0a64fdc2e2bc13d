package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// openaiAdapter implements Adapter against an OpenAI-compatible completion
// server. Both vLLM and LMDeploy expose this surface, so the two backends
// share this implementation and differ only in name and default base URL.
type openaiAdapter struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newOpenAIAdapter(name, baseURL, apiKey string, connectTimeout time.Duration) *openaiAdapter {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 on the client: every request carries a context deadline
	// supplied by the caller, and streaming responses outlive any fixed value.
	return &openaiAdapter{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
}

func (a *openaiAdapter) Name() string { return a.name }

// Available is true for server-backed adapters: the runtime is the remote
// server and its absence surfaces as a load failure, not a missing capability.
func (a *openaiAdapter) Available() bool { return true }

// Load verifies the server is reachable and answers for the model, so a dead
// backend fails at load time rather than on the first generation.
func (a *openaiAdapter) Load(ctx context.Context, modelID string, cfg EngineConfig) (Engine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s server unreachable at %s: %w", a.name, a.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s server returned %s for /v1/models", a.name, resp.Status)
	}
	return &openaiEngine{adapter: a, modelID: modelID, cfg: cfg}, nil
}

func (a *openaiAdapter) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

// openaiEngine is a handle for one model on the remote server. The server
// owns the weights; the handle carries identity and resolved config only.
type openaiEngine struct {
	adapter *openaiAdapter
	modelID string
	cfg     EngineConfig
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

type completionChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

func (e *openaiEngine) Complete(ctx context.Context, prompt string, p SamplingParams) (string, error) {
	p = p.Normalize()
	resp, err := e.post(ctx, prompt, p, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", e.adapter.name)
	}
	return out.Choices[0].Text, nil
}

func (e *openaiEngine) Stream(ctx context.Context, prompt string, p SamplingParams, onChunk func(string) error) error {
	p = p.Normalize()
	resp, err := e.post(ctx, prompt, p, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Server-sent events: "data: {...}" lines, terminated by "data: [DONE]".
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}
		var chunk completionResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		for _, c := range chunk.Choices {
			if c.Text == "" {
				continue
			}
			if err := onChunk(c.Text); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (e *openaiEngine) post(ctx context.Context, prompt string, p SamplingParams, stream bool) (*http.Response, error) {
	body, err := json.Marshal(completionRequest{
		Model:       e.modelID,
		Prompt:      prompt,
		MaxTokens:   p.MaxNewTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		TopK:        p.TopK,
		Stop:        p.Stop,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.adapter.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	e.adapter.authorize(req)
	resp, err := e.adapter.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("%s completion failed: %s: %s", e.adapter.name, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// Close is a no-op for server-backed engines: the HTTP client is shared by
// the adapter and the remote server owns the model memory.
func (e *openaiEngine) Close() error { return nil }
