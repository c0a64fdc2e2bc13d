package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"inferd/internal/backend"
	"inferd/internal/lifecycle"
	"inferd/pkg/types"
)

// Version reported by GET /.
const Version = "1.0.0"

// Service defines the methods the HTTP layer requires from the lifecycle
// manager and its generation façade.
type Service interface {
	Ready() bool
	Status() types.StatusResponse
	Acquire(ctx context.Context, id string, ov lifecycle.Overrides) (backend.Engine, error)
	Release(id string) bool
	GenerateOnce(ctx context.Context, id, prompt string, p backend.SamplingParams) (string, error)
	GenerateStream(ctx context.Context, id, prompt string, p backend.SamplingParams) (*lifecycle.Stream, error)
}

// Options configures the HTTP surface.
type Options struct {
	Logger zerolog.Logger
	// MaxBodyBytes caps JSON request bodies; <=0 means 1 MiB.
	MaxBodyBytes int64
	// EnableStreaming allows clients to request NDJSON streaming. When false,
	// stream requests are served as single-shot responses.
	EnableStreaming bool
	// RequestTimeout bounds generate/chat handling; <=0 disables.
	RequestTimeout time.Duration
	CORSEnabled    bool
	CORSOrigins    []string
}

type server struct {
	svc  Service
	opts Options
}

// NewMux builds the gateway router: the Ollama-compatible API plus health,
// readiness and metrics endpoints.
func NewMux(svc Service, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &server{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if opts.CORSEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}))
	}

	r.Get("/", s.handleInfo)
	r.Get("/api/tags", s.handleTags)
	r.Post("/api/generate", s.handleGenerate)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/models/load/{name}", s.handleLoad)
	r.Delete("/api/models/unload/{name}", s.handleUnload)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// handleInfo godoc
// @Summary  Service info
// @Produce  json
// @Success  200 {object} types.InfoResponse
// @Router   / [get]
func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.InfoResponse{
		Message:          "inferd - Ollama compatible API",
		Version:          Version,
		BackendAvailable: s.svc.Ready(),
	})
}

// handleStatus godoc
// @Summary  Lifecycle manager status
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /api/status [get]
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

// handleLoad godoc
// @Summary  Force-load a model
// @Produce  json
// @Param    name path string true "model identifier"
// @Success  200 {object} types.AdminResponse
// @Failure  500 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /api/models/load/{name} [post]
func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.svc.Acquire(r.Context(), name, lifecycle.Overrides{}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AdminResponse{
		Status:  "success",
		Message: "Model " + name + " loaded successfully",
	})
}

// handleUnload godoc
// @Summary  Unload a model
// @Produce  json
// @Param    name path string true "model identifier"
// @Success  200 {object} types.AdminResponse
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/models/unload/{name} [delete]
func (s *server) handleUnload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.svc.Release(name) {
		writeError(w, lifecycle.ErrModelNotFound(name))
		return
	}
	writeJSON(w, http.StatusOK, types.AdminResponse{
		Status:  "success",
		Message: "Model " + name + " unloaded successfully",
	})
}

// decodeJSON enforces content type and body limits before decoding into dst.
func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// requestContext applies the configured request timeout, if any.
func (s *server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

// samplingParams maps Ollama-style options to adapter parameters.
func samplingParams(o types.GenerateOptions) backend.SamplingParams {
	return backend.SamplingParams{
		Temperature:  o.Temperature,
		TopP:         o.TopP,
		TopK:         o.TopK,
		MaxNewTokens: o.NumPredict,
		Stop:         o.Stop,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
