// Package metrics defines and registers all custom Prometheus metrics for the
// portal API. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts credential login attempts.
// Labels:
//   - portal: "customer" or "staff"
//   - result: "success", "invalid_credentials", "wrong_portal", "pending",
//     "rejected", or "upstream_error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of credential login attempts, by portal and result.",
	},
	[]string{"portal", "result"},
)

// CallbacksTotal counts OAuth callback completions.
// Label:
//   - result: "success", "consent_required", or "failed"
var CallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oauth_callbacks_total",
		Help:      "Total number of OAuth callbacks handled, by result.",
	},
	[]string{"result"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - decision: "allow", "redirect_login", or "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityDroppedTotal counts audit events dropped because a recorder shard
// was full.
var ActivityDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_events_dropped_total",
		Help:      "Total number of audit events dropped due to full recorder shards.",
	},
)

// ActivityErrorsTotal counts audit events that failed to persist.
var ActivityErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_write_errors_total",
		Help:      "Total number of audit events that failed to persist.",
	},
)
