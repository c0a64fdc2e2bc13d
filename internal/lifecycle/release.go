package lifecycle

// Release removes a cached entry and closes its engine. Returns false if the
// identifier was not cached. Close errors are logged and swallowed: the
// manager's own state stays consistent even if the adapter leaks.
func (m *Manager) Release(id string) bool {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.entries, id)
	loaded := len(m.entries)
	m.mu.Unlock()

	loadedModels.Set(float64(loaded))
	if err := e.engine.Close(); err != nil {
		m.log.Warn().Err(err).Str("model", id).Msg("engine close failed during release")
	}
	m.log.Info().Str("model", id).Msg("model unloaded")
	return true
}

// Close releases every cached entry. Called on shutdown.
func (m *Manager) Close() {
	for _, id := range m.ListLoaded() {
		m.Release(id)
	}
}
