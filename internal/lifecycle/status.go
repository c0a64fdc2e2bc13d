package lifecycle

import (
	"time"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// Status builds the response for GET /api/status.
func (m *Manager) Status() types.StatusResponse {
	loaded := m.ListLoaded()
	m.mu.RLock()
	loads := m.loadsTotal
	evictions := m.evictionsTotal
	m.mu.RUnlock()
	return types.StatusResponse{
		BackendAvailable: m.adapter.Available(),
		LoadedCount:      len(loaded),
		LoadedModels:     loaded,
		KnownModels:      registry.Known(),
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		LoadsTotal:       loads,
		EvictionsTotal:   evictions,
	}
}
