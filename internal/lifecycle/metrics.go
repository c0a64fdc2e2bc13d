package lifecycle

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lifecycle",
		Name:      "loads_total",
		Help:      "Total successful model loads",
	})

	loadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lifecycle",
		Name:      "load_failures_total",
		Help:      "Total failed model loads",
	})

	evictionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lifecycle",
		Name:      "evictions_total",
		Help:      "Total idle evictions",
	})

	loadedModels = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "lifecycle",
		Name:      "loaded_models",
		Help:      "Number of currently loaded models",
	})
)

func init() {
	prometheus.MustRegister(loadsCounter, loadFailures, evictionsCounter, loadedModels)
}
