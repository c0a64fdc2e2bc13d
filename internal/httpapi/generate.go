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

func timestamp() string { return time.Now().Format(time.RFC3339) }

// handleGenerate godoc
// @Summary  Generate a completion (Ollama compatible)
// @Accept   json
// @Produce  json
// @Param    request body types.GenerateRequest true "generation request"
// @Success  200 {object} types.GenerateResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /api/generate [post]
func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	start := time.Now()
	params := samplingParams(req.Options)
	s.opts.Logger.Info().Str("model", req.Model).Bool("stream", req.Stream).
		Str("request_id", middleware.GetReqID(r.Context())).Msg("generate start")

	if req.Stream && s.opts.EnableStreaming {
		s.streamGenerate(w, r, req.Model, req.Prompt, params, start)
		return
	}

	text, err := s.svc.GenerateOnce(ctx, req.Model, req.Prompt, params)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.opts.Logger.Error().Err(err).Str("model", req.Model).Msg("generate failed")
		writeError(w, err)
		return
	}
	total := time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, types.GenerateResponse{
		Model:         req.Model,
		CreatedAt:     timestamp(),
		Response:      text,
		Done:          true,
		TotalDuration: total,
		EvalCount:     len(strings.Fields(text)),
		EvalDuration:  total,
	})
	s.opts.Logger.Info().Str("model", req.Model).Dur("dur", time.Since(start)).Msg("generate end")
}

// streamGenerate writes newline-delimited JSON chunks: done=false objects
// while fragments arrive, then one done=true object with aggregate fields.
// Stream errors arrive in-band as a final object since partial output has
// already been sent.
func (s *server) streamGenerate(w http.ResponseWriter, r *http.Request, model, prompt string, params backend.SamplingParams, start time.Time) {
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
		var line types.GenerateResponse
		switch {
		case ev.Err != nil:
			line = types.GenerateResponse{
				Model:     model,
				CreatedAt: timestamp(),
				Response:  "Error: " + ev.Err.Error(),
				Done:      true,
			}
		case ev.Done:
			line = types.GenerateResponse{
				Model:         model,
				CreatedAt:     timestamp(),
				Done:          true,
				TotalDuration: time.Since(start).Milliseconds(),
				EvalCount:     ev.Stats.EvalCount,
				EvalDuration:  ev.Stats.Duration.Milliseconds(),
			}
		default:
			line = types.GenerateResponse{
				Model:     model,
				CreatedAt: timestamp(),
				Response:  ev.Chunk,
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
