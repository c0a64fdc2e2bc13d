package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"inferd/internal/backend"
	"inferd/internal/lifecycle"
	"inferd/pkg/types"
)

// stubEngine is a canned backend.Engine recording the prompt it was given.
type stubEngine struct {
	mu         sync.Mutex
	text       string
	chunks     []string
	genErr     error
	lastPrompt string
}

func (e *stubEngine) Complete(ctx context.Context, prompt string, p backend.SamplingParams) (string, error) {
	e.mu.Lock()
	e.lastPrompt = prompt
	e.mu.Unlock()
	if e.genErr != nil {
		return "", e.genErr
	}
	return e.text, nil
}

func (e *stubEngine) Stream(ctx context.Context, prompt string, p backend.SamplingParams, onChunk func(string) error) error {
	e.mu.Lock()
	e.lastPrompt = prompt
	e.mu.Unlock()
	for _, c := range e.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return e.genErr
}

func (e *stubEngine) Close() error { return nil }

func (e *stubEngine) prompt() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPrompt
}

type stubAdapter struct {
	unavailable bool
	loadErr     error
	engine      *stubEngine
}

func (a *stubAdapter) Name() string    { return "stub" }
func (a *stubAdapter) Available() bool { return !a.unavailable }

func (a *stubAdapter) Load(ctx context.Context, id string, cfg backend.EngineConfig) (backend.Engine, error) {
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	if a.engine == nil {
		a.engine = &stubEngine{text: "ok"}
	}
	return a.engine, nil
}

func newTestServer(a backend.Adapter, opts Options) (http.Handler, *lifecycle.Manager) {
	mgr := lifecycle.New(lifecycle.ManagerConfig{Adapter: a, Logger: zerolog.Nop()})
	opts.Logger = zerolog.Nop()
	return NewMux(mgr, opts), mgr
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestInfo(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	rec := doJSON(t, h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	info := decodeBody[types.InfoResponse](t, rec)
	if info.Version != Version || !info.BackendAvailable {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !strings.Contains(info.Message, "Ollama") {
		t.Fatalf("info message: %q", info.Message)
	}
}

func TestTags(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	rec := doJSON(t, h, http.MethodGet, "/api/tags", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	tags := decodeBody[types.TagsResponse](t, rec)
	if len(tags.Models) != 5 {
		t.Fatalf("expected 5 models, got %d", len(tags.Models))
	}
	for _, m := range tags.Models {
		if !strings.HasPrefix(m.Digest, "sha256:") {
			t.Fatalf("digest %q for %s", m.Digest, m.Name)
		}
		if m.Size <= 0 {
			t.Fatalf("size %d for %s", m.Size, m.Name)
		}
	}
}

func TestHealthAndReadiness(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	if rec := doJSON(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz status %d", rec.Code)
	}

	degraded, _ := newTestServer(&stubAdapter{unavailable: true}, Options{})
	rec := doJSON(t, degraded, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded readyz status %d", rec.Code)
	}
}

func TestGenerateNonStream(t *testing.T) {
	a := &stubAdapter{engine: &stubEngine{text: "hello world"}}
	h, _ := newTestServer(a, Options{})

	rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[types.GenerateResponse](t, rec)
	if !resp.Done || resp.Response != "hello world" || resp.Model != "m1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.EvalCount != 2 {
		t.Fatalf("eval count over %q: got %d", resp.Response, resp.EvalCount)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	e := decodeBody[types.ErrorResponse](t, rec)
	if e.Code != http.StatusBadRequest {
		t.Fatalf("error payload: %+v", e)
	}
}

func TestGenerateRejectsWrongContentType(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	t.Run("backend unavailable is 503", func(t *testing.T) {
		h, _ := newTestServer(&stubAdapter{unavailable: true}, Options{})
		rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi"})
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status %d", rec.Code)
		}
	})
	t.Run("load failure is 500", func(t *testing.T) {
		h, _ := newTestServer(&stubAdapter{loadErr: errors.New("no weights")}, Options{})
		rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi"})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status %d", rec.Code)
		}
	})
	t.Run("generation failure is 500", func(t *testing.T) {
		h, _ := newTestServer(&stubAdapter{engine: &stubEngine{genErr: errors.New("cuda oom")}}, Options{})
		rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi"})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status %d", rec.Code)
		}
	})
}

func decodeNDJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) []T {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type %q", ct)
	}
	var out []T
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		out = append(out, v)
	}
	return out
}

func TestGenerateStreamNDJSON(t *testing.T) {
	a := &stubAdapter{engine: &stubEngine{chunks: []string{"Hel", "lo"}}}
	h, _ := newTestServer(a, Options{EnableStreaming: true})

	rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi", Stream: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	lines := decodeNDJSON[types.GenerateResponse](t, rec)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %s", len(lines), rec.Body.String())
	}
	var got string
	for _, l := range lines[:2] {
		if l.Done {
			t.Fatalf("chunk line marked done: %+v", l)
		}
		got += l.Response
	}
	if got != "Hello" {
		t.Fatalf("unexpected concatenation %q", got)
	}
	final := lines[2]
	if !final.Done || final.Response != "" {
		t.Fatalf("unexpected terminal line: %+v", final)
	}
	if final.EvalCount != 1 {
		t.Fatalf("terminal eval count: got %d", final.EvalCount)
	}
}

func TestGenerateStreamErrorInBand(t *testing.T) {
	a := &stubAdapter{engine: &stubEngine{chunks: []string{"par"}, genErr: errors.New("backend reset")}}
	h, _ := newTestServer(a, Options{EnableStreaming: true})

	rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi", Stream: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	lines := decodeNDJSON[types.GenerateResponse](t, rec)
	final := lines[len(lines)-1]
	if !final.Done || !strings.HasPrefix(final.Response, "Error: ") {
		t.Fatalf("expected in-band error terminal line, got %+v", final)
	}
}

func TestGenerateStreamDisabledFallsBackToSingleShot(t *testing.T) {
	a := &stubAdapter{engine: &stubEngine{text: "hello"}}
	h, _ := newTestServer(a, Options{EnableStreaming: false})

	rec := doJSON(t, h, http.MethodPost, "/api/generate", types.GenerateRequest{Model: "m1", Prompt: "hi", Stream: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	resp := decodeBody[types.GenerateResponse](t, rec)
	if !resp.Done || resp.Response != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestChatFlattensConversation(t *testing.T) {
	eng := &stubEngine{text: "Sure."}
	h, _ := newTestServer(&stubAdapter{engine: eng}, Options{})

	rec := doJSON(t, h, http.MethodPost, "/api/chat", types.ChatRequest{
		Model: "m1",
		Messages: []types.ChatMessage{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	want := "System: be terse\nUser: hi\nAssistant: "
	if got := eng.prompt(); got != want {
		t.Fatalf("flattened prompt:\n got %q\nwant %q", got, want)
	}
	resp := decodeBody[types.ChatResponse](t, rec)
	if resp.Message.Role != "assistant" || resp.Message.Content != "Sure." {
		t.Fatalf("unexpected message: %+v", resp.Message)
	}
	if !resp.Done {
		t.Fatalf("chat response not done")
	}
}

func TestChatRequiresMessages(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{}, Options{})
	rec := doJSON(t, h, http.MethodPost, "/api/chat", types.ChatRequest{Model: "m1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestChatStreamWrapsAssistantMessages(t *testing.T) {
	a := &stubAdapter{engine: &stubEngine{chunks: []string{"Hi", " there"}}}
	h, _ := newTestServer(a, Options{EnableStreaming: true})

	rec := doJSON(t, h, http.MethodPost, "/api/chat", types.ChatRequest{
		Model:    "m1",
		Stream:   true,
		Messages: []types.ChatMessage{{Role: "user", Content: "hello"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	lines := decodeNDJSON[types.ChatResponse](t, rec)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var got string
	for _, l := range lines[:2] {
		if l.Message.Role != "assistant" {
			t.Fatalf("chunk role %q", l.Message.Role)
		}
		got += l.Message.Content
	}
	if got != "Hi there" {
		t.Fatalf("unexpected concatenation %q", got)
	}
	if !lines[2].Done || lines[2].EvalCount != 2 {
		t.Fatalf("unexpected terminal line: %+v", lines[2])
	}
}

func TestFlattenMessagesSkipsUnknownRoles(t *testing.T) {
	got := flattenMessages([]types.ChatMessage{
		{Role: "user", Content: "a"},
		{Role: "tool", Content: "ignored"},
		{Role: "assistant", Content: "b"},
	})
	want := "User: a\nAssistant: b\nAssistant: "
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLoadUnloadRoundTrip(t *testing.T) {
	h, mgr := newTestServer(&stubAdapter{}, Options{})

	rec := doJSON(t, h, http.MethodPost, "/api/models/load/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status %d: %s", rec.Code, rec.Body.String())
	}
	admin := decodeBody[types.AdminResponse](t, rec)
	if admin.Status != "success" {
		t.Fatalf("load payload: %+v", admin)
	}
	if loaded := mgr.ListLoaded(); len(loaded) != 1 || loaded[0] != "m1" {
		t.Fatalf("manager state after load: %v", loaded)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/models/unload/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unload status %d", rec.Code)
	}
	if loaded := mgr.ListLoaded(); len(loaded) != 0 {
		t.Fatalf("manager state after unload: %v", loaded)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/models/unload/m1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second unload status %d", rec.Code)
	}
}

func TestLoadFailureMapsTo500(t *testing.T) {
	h, _ := newTestServer(&stubAdapter{loadErr: errors.New("disk full")}, Options{})
	rec := doJSON(t, h, http.MethodPost, "/api/models/load/m1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h, mgr := newTestServer(&stubAdapter{}, Options{})
	if _, err := mgr.Acquire(context.Background(), "m1", lifecycle.Overrides{}); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	rec := doJSON(t, h, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	st := decodeBody[types.StatusResponse](t, rec)
	if !st.BackendAvailable || st.LoadedCount != 1 || len(st.KnownModels) != 5 {
		t.Fatalf("unexpected status: %+v", st)
	}
}
