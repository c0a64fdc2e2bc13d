package lifecycle

import (
	"sort"
	"sync"
	"time"

	"inferd/internal/backend"

	"github.com/rs/zerolog"
)

// Manager caches loaded engines keyed by model identifier. Metadata mutation
// happens under mu; the expensive step (backend construction) runs outside
// it, gated by a per-identifier load lock.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// loadLocks guarantees at most one in-flight load per identifier. Entries
	// are never removed; the map grows with distinct identifiers ever
	// requested, which is accepted (see DESIGN.md).
	lockMu    sync.Mutex
	loadLocks map[string]*sync.Mutex

	adapter      backend.Adapter
	defaults     backend.EngineConfig
	defaultModel string
	log          zerolog.Logger
	startTime    time.Time

	loadsTotal     uint64
	evictionsTotal uint64
}

// entry is a cached, ready engine. Exclusively owned by the Manager; its
// presence implies the engine accepts generation calls.
type entry struct {
	engine   backend.Engine
	cfg      backend.EngineConfig
	lastUsed time.Time
}

// New constructs a Manager from ManagerConfig.
func New(cfg ManagerConfig) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		entries:      make(map[string]*entry),
		loadLocks:    make(map[string]*sync.Mutex),
		adapter:      cfg.Adapter,
		defaults:     cfg.Defaults,
		defaultModel: cfg.DefaultModel,
		log:          cfg.Logger,
		startTime:    time.Now(),
	}
	if !m.adapter.Available() {
		m.log.Warn().Str("backend", m.adapter.Name()).Msg("backend unavailable, running in degraded mode")
	}
	return m
}

// Ready reports whether the backend can serve load requests.
func (m *Manager) Ready() bool { return m.adapter.Available() }

// DefaultModel returns the configured default model identifier.
func (m *Manager) DefaultModel() string { return m.defaultModel }

// ListLoaded returns the identifiers of currently cached engines, sorted for
// stable output.
func (m *Manager) ListLoaded() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.entries))
	for id := range m.entries {
		out = append(out, id)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// loadLock returns the per-identifier load lock, creating it lazily.
func (m *Manager) loadLock(id string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lk, ok := m.loadLocks[id]
	if !ok {
		lk = &sync.Mutex{}
		m.loadLocks[id] = lk
	}
	return lk
}

// touch refreshes the last-used timestamp of a cached entry, if present.
func (m *Manager) touch(id string) {
	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.lastUsed = time.Now()
	}
	m.mu.Unlock()
}
