package lifecycle

import (
	"inferd/internal/backend"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxContextLen = 2048
	defaultMaxSequences  = 256
	defaultParallelism   = 1
	defaultGPUMemoryUtil = 0.9
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Adapter      backend.Adapter
	DefaultModel string
	// Global engine defaults; the lowest-priority tier of config resolution.
	Defaults backend.EngineConfig
	Logger   zerolog.Logger
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.Adapter == nil {
		c.Adapter = backend.NewUnavailable("")
	}
	if c.Defaults.MaxContextLen <= 0 {
		c.Defaults.MaxContextLen = defaultMaxContextLen
	}
	if c.Defaults.MaxSequences <= 0 {
		c.Defaults.MaxSequences = defaultMaxSequences
	}
	if c.Defaults.Parallelism <= 0 {
		c.Defaults.Parallelism = defaultParallelism
	}
	if c.Defaults.GPUMemoryUtil <= 0 {
		c.Defaults.GPUMemoryUtil = defaultGPUMemoryUtil
	}
	return c
}
