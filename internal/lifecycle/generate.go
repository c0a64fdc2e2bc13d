package lifecycle

import (
	"context"

	"inferd/internal/backend"
)

// GenerateOnce acquires the model and runs a single-shot generation,
// returning the complete text. Acquisition errors pass through with their
// taxonomy (backend-unavailable, load-failed); adapter inference errors are
// wrapped as generation failures.
func (m *Manager) GenerateOnce(ctx context.Context, id, prompt string, p backend.SamplingParams) (string, error) {
	eng, err := m.Acquire(ctx, id, Overrides{})
	if err != nil {
		return "", err
	}
	text, err := eng.Complete(ctx, prompt, p)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrGenerationFailed(id, err)
	}
	return text, nil
}
