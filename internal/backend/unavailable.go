package backend

import (
	"context"
	"errors"
)

// unavailableAdapter is the explicit "no runtime" variant. The lifecycle
// manager branches on Available once; it never calls Load on this adapter in
// practice, but Load still fails cleanly if it does.
type unavailableAdapter struct{ reason string }

// NewUnavailable returns an adapter that reports no backend capability.
func NewUnavailable(reason string) Adapter {
	if reason == "" {
		reason = "no inference backend configured"
	}
	return unavailableAdapter{reason: reason}
}

func (a unavailableAdapter) Name() string    { return "none" }
func (a unavailableAdapter) Available() bool { return false }

func (a unavailableAdapter) Load(ctx context.Context, modelID string, cfg EngineConfig) (Engine, error) {
	return nil, errors.New(a.reason)
}
