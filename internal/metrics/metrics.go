// Package metrics exposes Prometheus metrics for allocation requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation outcomes.
const (
	OutcomeAllocated = "allocated"
	OutcomeReused    = "reused"
	OutcomeNoCMDB    = "no_cmdb"
	OutcomeNoMatch   = "no_match"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

var (
	// Requests counts allocation requests by outcome.
	// Labels: outcome (allocated, reused, no_cmdb, no_match, exhausted, error)
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bootmatch",
		Subsystem: "allocator",
		Name:      "requests_total",
		Help:      "Total allocation requests by outcome",
	}, []string{"outcome"})

	// Selections counts matched profiles.
	// Labels: profile
	Selections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bootmatch",
		Subsystem: "allocator",
		Name:      "selections_total",
		Help:      "Total profile selections",
	}, []string{"profile"})

	// LockWait measures how long requests waited for the fleet lock.
	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bootmatch",
		Subsystem: "lock",
		Name:      "wait_seconds",
		Help:      "Time spent waiting for the allocation lock",
		Buckets:   []float64{0.001, 0.01, 0.1, 1, 2, 5, 10, 30, 60, 300},
	})

	// FreeEntries reports unused CMDB entries after the last allocation.
	// Labels: profile
	FreeEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bootmatch",
		Subsystem: "cmdb",
		Name:      "free_entries",
		Help:      "Unused CMDB entries per profile",
	}, []string{"profile"})

	// RemainingUses reports the finite budget left per profile.
	// Labels: profile
	RemainingUses = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bootmatch",
		Subsystem: "profile",
		Name:      "remaining_uses",
		Help:      "Remaining uses of finite profiles",
	}, []string{"profile"})
)
