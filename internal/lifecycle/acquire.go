package lifecycle

import (
	"context"
	"time"

	"inferd/internal/backend"
	"inferd/internal/registry"
)

// Overrides are per-call engine configuration overrides. Zero values mean
// "unset"; each field resolves independently as override > registry > global
// default.
type Overrides struct {
	MaxContextLen int
	MaxSequences  int
	Parallelism   int
	GPUMemoryUtil float64
}

// Acquire returns a ready engine for id, loading it if necessary. A cached
// entry refreshes its last-used timestamp. Loads are single-flight per
// identifier: concurrent callers for the same id serialize on its load lock
// and re-check the cache after acquiring it, while other identifiers load
// independently.
func (m *Manager) Acquire(ctx context.Context, id string, ov Overrides) (backend.Engine, error) {
	if id == "" {
		id = m.defaultModel
		if id == "" {
			return nil, ErrModelNotFound("(unspecified)")
		}
	}
	if !m.adapter.Available() {
		return nil, ErrBackendUnavailable(m.adapter.Name() + " backend not available")
	}

	m.mu.RLock()
	e := m.entries[id]
	m.mu.RUnlock()
	if e != nil {
		m.touch(id)
		return e.engine, nil
	}

	lk := m.loadLock(id)
	lk.Lock()
	defer lk.Unlock()

	// Double-check: a racing caller may have just finished loading.
	m.mu.RLock()
	e = m.entries[id]
	m.mu.RUnlock()
	if e != nil {
		m.touch(id)
		return e.engine, nil
	}

	cfg := m.resolveConfig(id, ov)
	m.log.Info().Str("model", id).Int("max_context_len", cfg.MaxContextLen).
		Int("parallelism", cfg.Parallelism).Msg("loading model")
	start := time.Now()

	eng, err := m.adapter.Load(ctx, id, cfg)
	if err != nil {
		// No partial entry: the lock releases and a later call retries from
		// scratch.
		loadFailures.Inc()
		m.log.Error().Err(err).Str("model", id).Msg("model load failed")
		return nil, ErrLoadFailed(id, err)
	}

	m.mu.Lock()
	m.entries[id] = &entry{engine: eng, cfg: cfg, lastUsed: time.Now()}
	m.loadsTotal++
	loaded := len(m.entries)
	m.mu.Unlock()

	loadsCounter.Inc()
	loadedModels.Set(float64(loaded))
	m.log.Info().Str("model", id).Dur("dur", time.Since(start)).Msg("model loaded")
	return eng, nil
}

// resolveConfig resolves the effective engine configuration for id. Each
// field is resolved independently: explicit override, else registry entry,
// else global default.
func (m *Manager) resolveConfig(id string, ov Overrides) backend.EngineConfig {
	reg := registry.ConfigFor(id)
	cfg := m.defaults
	if reg.MaxContextLen > 0 {
		cfg.MaxContextLen = reg.MaxContextLen
	}
	if reg.Parallelism > 0 {
		cfg.Parallelism = reg.Parallelism
	}
	if ov.MaxContextLen > 0 {
		cfg.MaxContextLen = ov.MaxContextLen
	}
	if ov.MaxSequences > 0 {
		cfg.MaxSequences = ov.MaxSequences
	}
	if ov.Parallelism > 0 {
		cfg.Parallelism = ov.Parallelism
	}
	if ov.GPUMemoryUtil > 0 {
		cfg.GPUMemoryUtil = ov.GPUMemoryUtil
	}
	return cfg
}
