// Package metrics defines and registers all custom Prometheus metrics for the
// sweet shop API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation; the HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// ── Inventory metrics ─────────────────────────────────────────────────────────

// PurchasesTotal counts purchase attempts that reached the store.
// Label:
//   - result: "ok", "out_of_stock", "not_found" or "error"
var PurchasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Total number of purchase attempts, by result.",
	},
	[]string{"result"},
)

// UnitsSoldTotal counts units removed from stock by successful purchases.
var UnitsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total number of units sold.",
	},
)

// UnitsRestockedTotal counts units added to stock by restocks.
var UnitsRestockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_restocked_total",
		Help:      "Total number of units added by restocks.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Movement ledger metrics ───────────────────────────────────────────────────

// MovementsQueueDepth tracks the number of movements waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MovementsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "movements_queue_depth",
		Help:      "Current number of stock movements pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MovementsDroppedTotal counts movements discarded because a worker queue was full.
var MovementsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_dropped_total",
		Help:      "Total number of stock movements dropped due to a full queue.",
	},
)

// MovementWriteDuration measures how long persisting a single movement takes.
// Label:
//   - result: "ok" or "error"
var MovementWriteDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "movement_write_duration_seconds",
		Help:      "Duration of stock movement persistence from dequeue to insert.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
