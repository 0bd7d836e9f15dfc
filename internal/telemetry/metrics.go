// Package telemetry exposes Prometheus counters for cache behavior. The
// embedding application decides whether and where to serve them.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshTotal counts remote refresh attempts by entity and result
	// ("success", "failure").
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog_cache",
		Name:      "refresh_total",
		Help:      "Remote refresh attempts by entity and result.",
	}, []string{"entity", "result"})

	// FallbackServed counts stale reads by the tier that produced them
	// ("near", "recent", "all", "empty").
	FallbackServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog_cache",
		Name:      "fallback_served_total",
		Help:      "Stale fallback reads by entity and tier.",
	}, []string{"entity", "tier"})

	// EvictedRows counts rows removed by age-based eviction.
	EvictedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalog_cache",
		Name:      "evicted_rows_total",
		Help:      "Rows removed by age-based eviction.",
	}, []string{"entity"})
)
