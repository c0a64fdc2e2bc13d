package lifecycle

import "time"

// EvictIdle releases every entry idle for longer than maxIdle and returns the
// number evicted. It is intended to be driven by an external timer and may
// run concurrently with Acquire/Release: candidates are re-checked under the
// write lock so an entry refreshed in between survives.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	now := time.Now()

	m.mu.RLock()
	candidates := make([]string, 0)
	for id, e := range m.entries {
		if now.Sub(e.lastUsed) > maxIdle {
			candidates = append(candidates, id)
		}
	}
	m.mu.RUnlock()

	evicted := 0
	for _, id := range candidates {
		m.mu.Lock()
		e, ok := m.entries[id]
		if !ok || now.Sub(e.lastUsed) <= maxIdle {
			m.mu.Unlock()
			continue
		}
		delete(m.entries, id)
		m.evictionsTotal++
		loaded := len(m.entries)
		m.mu.Unlock()

		loadedModels.Set(float64(loaded))
		evictionsCounter.Inc()
		if err := e.engine.Close(); err != nil {
			m.log.Warn().Err(err).Str("model", id).Msg("engine close failed during eviction")
		}
		m.log.Info().Str("model", id).Dur("idle", now.Sub(e.lastUsed)).Msg("evicted idle model")
		evicted++
	}
	return evicted
}
