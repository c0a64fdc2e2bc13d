package lifecycle

import (
	"context"
	"strings"
	"time"

	"inferd/internal/backend"
)

const (
	// streamBuffer bounds the hand-off channel between the producer goroutine
	// and the consumer.
	streamBuffer = 16
	// abandonGrace bounds how long Close waits for an abandoned producer.
	abandonGrace = time.Second
)

// StreamStats summarizes a completed stream.
type StreamStats struct {
	// EvalCount is a whitespace word-count estimate over the accumulated
	// output, matching the non-streaming accounting.
	EvalCount int
	Duration  time.Duration
}

// StreamEvent is one message of a generation stream: a chunk, or exactly one
// terminal event (Done with stats, or Err). Errors arrive in-band because
// partial output has usually already been transmitted downstream.
type StreamEvent struct {
	Chunk string
	Err   error
	Done  bool
	Stats StreamStats
}

// Stream is a finite, non-restartable sequence of generation fragments. The
// consumer pulls from Events until the channel closes after the terminal
// event. A consumer that stops early must call Close.
type Stream struct {
	events chan StreamEvent
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the event channel. It is closed after the terminal event.
func (s *Stream) Events() <-chan StreamEvent { return s.events }

// Close abandons the stream: it cancels the producer and waits a bounded
// grace period for it to exit. Safe to call after normal completion, and
// safe to call more than once. Resources of a producer that outlives the
// grace period are reclaimed best-effort by its own context handling.
func (s *Stream) Close() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(abandonGrace):
	}
}

// GenerateStream acquires the model and bridges the adapter's blocking
// streaming call into a pull-based event sequence. The adapter runs on its
// own goroutine and relays fragments through a bounded channel, so a slow or
// vanished consumer never blocks the gateway's request handling beyond the
// producer's context lifetime.
func (m *Manager) GenerateStream(ctx context.Context, id, prompt string, p backend.SamplingParams) (*Stream, error) {
	eng, err := m.Acquire(ctx, id, Overrides{})
	if err != nil {
		return nil, err
	}

	prodCtx, cancel := context.WithCancel(ctx)
	s := &Stream{
		events: make(chan StreamEvent, streamBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	start := time.Now()

	go func() {
		defer close(s.done)
		defer close(s.events)
		defer cancel()

		var full strings.Builder
		err := eng.Stream(prodCtx, prompt, p, func(chunk string) error {
			full.WriteString(chunk)
			select {
			case s.events <- StreamEvent{Chunk: chunk}:
				return nil
			case <-prodCtx.Done():
				return prodCtx.Err()
			}
		})

		var final StreamEvent
		if err != nil {
			if prodCtx.Err() != nil {
				// Abandoned or canceled: nobody is pulling anymore.
				return
			}
			m.log.Error().Err(err).Str("model", id).Msg("streaming generation failed")
			final = StreamEvent{Err: ErrGenerationFailed(id, err)}
		} else {
			final = StreamEvent{Done: true, Stats: StreamStats{
				EvalCount: len(strings.Fields(full.String())),
				Duration:  time.Since(start),
			}}
		}
		select {
		case s.events <- final:
		case <-prodCtx.Done():
		}
	}()

	return s, nil
}
