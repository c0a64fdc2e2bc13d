package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"inferd/internal/backend"
	"inferd/pkg/types"
)

// flattenMessages converts a chat conversation into a single prompt of
// "Role: content" lines ending with "Assistant: " so the model continues as
// the assistant. Unknown roles are skipped.
func flattenMessages(msgs []types.ChatMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			parts = append(parts, "System: "+m.Content)
		case "user":
			parts = append(parts, "User: "+m.Content)
		case "assistant":
			parts = append(parts, "Assistant: "+m.Content)
		}
	}
	return strings.Join(parts, "\n") + "\nAssistant: "
}

// handleChat godoc
// @Summary  Chat completion (Ollama compatible)
// @Accept   json
// @Produce  json
// @Param    request body types.ChatRequest true "chat request"
// @Success  200 {object} types.ChatResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /api/chat [post]
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "messages are required")
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	prompt := flattenMessages(req.Messages)
	params := samplingParams(req.Options)
	s.opts.Logger.Info().Str("model", req.Model).Bool("stream", req.Stream).
		Str("request_id", middleware.GetReqID(r.Context())).Msg("chat start")

	if req.Stream && s.opts.EnableStreaming {
		s.streamChat(w, r, req.Model, prompt, params, start)
		return
	}

	text, err := s.svc.GenerateOnce(ctx, req.Model, prompt, params)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.opts.Logger.Error().Err(err).Str("model", req.Model).Msg("chat failed")
		writeError(w, err)
		return
	}
	total := time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, types.ChatResponse{
		Model:         req.Model,
		CreatedAt:     timestamp(),
		Message:       types.ChatMessage{Role: "assistant", Content: text},
		Done:          true,
		TotalDuration: total,
		EvalCount:     len(strings.Fields(text)),
		EvalDuration:  total,
	})
	s.opts.Logger.Info().Str("model", req.Model).Dur("dur", time.Since(start)).Msg("chat end")
}

// streamChat mirrors streamGenerate with the text wrapped in an assistant
// message per chunk.
func (s *server) streamChat(w http.ResponseWriter, r *http.Request, model, prompt string, params backend.SamplingParams, start time.Time) {
	stream, err := s.svc.GenerateStream(r.Context(), model, prompt, params)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	enc := json.NewEncoder(w)
	for ev := range stream.Events() {
		var line types.ChatResponse
		switch {
		case ev.Err != nil:
			line = types.ChatResponse{
				Model:     model,
				CreatedAt: timestamp(),
				Message:   types.ChatMessage{Role: "assistant", Content: "Error: " + ev.Err.Error()},
				Done:      true,
			}
		case ev.Done:
			line = types.ChatResponse{
				Model:         model,
				CreatedAt:     timestamp(),
				Message:       types.ChatMessage{Role: "assistant"},
				Done:          true,
				TotalDuration: time.Since(start).Milliseconds(),
				EvalCount:     ev.Stats.EvalCount,
				EvalDuration:  ev.Stats.Duration.Milliseconds(),
			}
		default:
			line = types.ChatResponse{
				Model:     model,
				CreatedAt: timestamp(),
				Message:   types.ChatMessage{Role: "assistant", Content: ev.Chunk},
				Done:      false,
			}
		}
		if err := enc.Encode(line); err != nil {
			return
		}
		if flush != nil {
			flush()
		}
		if line.Done {
			return
		}
	}
}
