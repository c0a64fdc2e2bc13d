package types

// GenerateOptions carries Ollama-style sampling options. All fields are
// optional; zero values fall back to server defaults.
type GenerateOptions struct {
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Maximum number of new tokens to generate (Ollama's num_predict).
	// example: 512
	NumPredict int `json:"num_predict,omitempty" example:"512"`
	// Optional stop sequences.
	// example: ["\n\n","END"]
	Stop []string `json:"stop,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	// Model identifier to generate with.
	// example: TheBloke/deepseek-coder-1.3b-instruct-AWQ
	Model string `json:"model"`
	// Prompt text to complete.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt"`
	// If true, stream newline-delimited JSON chunks.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Sampling options.
	Options GenerateOptions `json:"options,omitempty"`
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	// Role: "system", "user" or "assistant".
	// example: user
	Role string `json:"role" example:"user"`
	// Message content.
	// example: hi
	Content string `json:"content" example:"hi"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []ChatMessage   `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
	Options  GenerateOptions `json:"options,omitempty"`
}

// GenerateResponse is one NDJSON object of a /api/generate response.
// Non-streaming responses are a single object with Done=true.
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	// Aggregate fields, present on the final object only.
	TotalDuration int64 `json:"total_duration,omitempty"`
	EvalCount     int   `json:"eval_count,omitempty"`
	EvalDuration  int64 `json:"eval_duration,omitempty"`
}

// ChatResponse mirrors GenerateResponse with the text wrapped in a message.
type ChatResponse struct {
	Model         string      `json:"model"`
	CreatedAt     string      `json:"created_at"`
	Message       ChatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration,omitempty"`
	EvalCount     int         `json:"eval_count,omitempty"`
	EvalDuration  int64       `json:"eval_duration,omitempty"`
}

// ModelSummary describes one model in GET /api/tags.
type ModelSummary struct {
	// Model identifier.
	// example: mistralai/Mistral-7B-Instruct-v0.1
	Name string `json:"name"`
	// Last-modified timestamp (RFC 3339).
	ModifiedAt string `json:"modified_at"`
	// Approximate size in bytes.
	// example: 1000000000
	Size int64 `json:"size" example:"1000000000"`
	// Content digest.
	// example: sha256:8e2f...
	Digest string `json:"digest"`
}

// TagsResponse wraps the model list returned by GET /api/tags.
type TagsResponse struct {
	Models []ModelSummary `json:"models"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Whether the configured backend adapter can serve requests.
	// example: true
	BackendAvailable bool `json:"backend_available" example:"true"`
	// Number of models currently loaded.
	// example: 1
	LoadedCount int `json:"loaded_count" example:"1"`
	// Identifiers of currently loaded models.
	LoadedModels []string `json:"loaded_models"`
	// Identifiers the registry knows about.
	KnownModels []string `json:"known_models"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Total successful model loads since start.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Total idle evictions since start.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Message          string `json:"message"`
	Version          string `json:"version"`
	BackendAvailable bool   `json:"backend_available"`
}

// AdminResponse is returned by the model load/unload endpoints.
type AdminResponse struct {
	// example: success
	Status string `json:"status" example:"success"`
	// example: Model X loaded successfully
	Message string `json:"message"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
