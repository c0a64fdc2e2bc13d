package lifecycle

// backendUnavailableError signals a missing backend runtime (permanent) so
// the HTTP layer can return 503 Service Unavailable instead of 500.
type backendUnavailableError struct{ msg string }

func (e backendUnavailableError) Error() string { return e.msg }

// ErrBackendUnavailable constructs a backendUnavailableError.
func ErrBackendUnavailable(msg string) error {
	if msg == "" {
		msg = "inference backend not available"
	}
	return backendUnavailableError{msg: msg}
}

// IsBackendUnavailable reports whether err indicates a missing backend runtime.
func IsBackendUnavailable(err error) bool {
	_, ok := err.(backendUnavailableError)
	return ok
}

// loadFailedError signals a transient construction failure for one
// identifier. The caller may retry; the cache holds no partial entry.
type loadFailedError struct {
	id  string
	err error
}

func (e loadFailedError) Error() string { return "failed to load model " + e.id + ": " + e.err.Error() }
func (e loadFailedError) Unwrap() error { return e.err }

// ErrLoadFailed constructs a loadFailedError.
func ErrLoadFailed(id string, err error) error { return loadFailedError{id: id, err: err} }

// IsLoadFailed reports whether err indicates a failed model load.
func IsLoadFailed(err error) bool {
	_, ok := err.(loadFailedError)
	return ok
}

// modelNotFoundError signals an unload or info request for an identifier that
// is not cached (mapped to 404).
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// generationFailedError signals an adapter failure during inference. Cache
// state is unaffected.
type generationFailedError struct {
	id  string
	err error
}

func (e generationFailedError) Error() string {
	return "generation failed for model " + e.id + ": " + e.err.Error()
}
func (e generationFailedError) Unwrap() error { return e.err }

// ErrGenerationFailed constructs a generationFailedError.
func ErrGenerationFailed(id string, err error) error { return generationFailedError{id: id, err: err} }

// IsGenerationFailed reports whether err indicates an inference failure.
func IsGenerationFailed(err error) bool {
	_, ok := err.(generationFailedError)
	return ok
}
