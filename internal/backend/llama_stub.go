//go:build !llama

package backend

// No-CGO stub compiled when the 'llama' build tag is not set, keeping default
// builds and CI CGO-free. The real adapter lives in llama.go.

// NewLlama returns an unavailable adapter in builds without llama support, so
// callers get the explicit capability-missing variant instead of a mock.
func NewLlama(threads int) Adapter {
	return NewUnavailable("llama support not built (missing 'llama' build tag)")
}
