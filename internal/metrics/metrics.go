// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Runs ───────────────────────────────────────────────────────────────────

// RunsTotal counts per-user runs by result (ok, empty, error).
var RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofund",
	Subsystem: "run",
	Name:      "total",
	Help:      "Auto-transfer runs by result",
}, []string{"result"})

// RunDuration tracks how long a run holds the user's lock.
var RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "autofund",
	Subsystem: "run",
	Name:      "duration_seconds",
	Help:      "Duration of a single user's auto-transfer run",
	Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
})

// ─── Transfers ──────────────────────────────────────────────────────────────

// TransfersTotal counts ledger outcomes by outcome and kind.
var TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofund",
	Subsystem: "transfer",
	Name:      "total",
	Help:      "Transfer attempts by outcome and kind",
}, []string{"outcome", "kind"})

// TransferredAmount sums money moved into goals. Approximate, for dashboards only.
var TransferredAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofund",
	Subsystem: "transfer",
	Name:      "amount_total",
	Help:      "Amount moved into goals",
}, []string{"kind"})

// ─── Sweeps ─────────────────────────────────────────────────────────────────

// SweepUsers counts users processed by sweeps, by result (ok, error).
var SweepUsers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofund",
	Subsystem: "sweep",
	Name:      "users_total",
	Help:      "Users processed by sweeps",
}, []string{"result"})

// SweepDuration tracks whole-sweep latency.
var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "autofund",
	Subsystem: "sweep",
	Name:      "duration_seconds",
	Help:      "Duration of a sweep over all users with due schedules",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
})
