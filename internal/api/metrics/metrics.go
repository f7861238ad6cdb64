// Package metrics defines and registers all custom Prometheus metrics for the
// ChannelPass platform API. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "channelpass"

// RedemptionsTotal counts magic-link redemption attempts by terminal outcome.
// Label:
//   - outcome: "verified", "link_invalid", "identity_denied", "network_error"
var RedemptionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redemptions_total",
		Help:      "Total number of magic-link redemption attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SessionsIssuedTotal counts sessions issued, by the role they carry.
var SessionsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_issued_total",
		Help:      "Total number of sessions issued, by principal role.",
	},
	[]string{"role"},
)

// LinksIssuedTotal counts magic links minted, by token kind.
var LinksIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_issued_total",
		Help:      "Total number of magic links issued, by kind.",
	},
	[]string{"kind"},
)

// GateDecisionsTotal counts authorization gate outcomes on protected routes.
// Label:
//   - decision: "allowed", "auth_required", "session_expired", "access_denied"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of authorization gate decisions on protected routes.",
	},
	[]string{"decision"},
)

// RedemptionDuration measures the end-to-end latency of a redemption attempt.
var RedemptionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "redemption_duration_seconds",
		Help:      "Duration of redemption handling from request to reply.",
		Buckets:   prometheus.DefBuckets,
	},
)
