package store

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

type storeMetrics struct {
	loads    *metrics.Counter
	saves    *metrics.Counter
	skipped  *metrics.Counter
	failures *metrics.Counter
}

// metricsFor returns the counters of one backend driver. Counters are
// registered in the default set, so every store of a driver shares them.
func metricsFor(driver string) *storeMetrics {
	if driver == "" {
		driver = "unknown"
	}
	name := func(metric string) string {
		return fmt.Sprintf(`dotset_store_%s_total{driver=%q}`, metric, driver)
	}
	return &storeMetrics{
		loads:    metrics.GetOrCreateCounter(name("loads")),
		saves:    metrics.GetOrCreateCounter(name("saves")),
		skipped:  metrics.GetOrCreateCounter(name("saves_skipped")),
		failures: metrics.GetOrCreateCounter(name("failures")),
	}
}
