// Package metrics defines and registers all custom Prometheus metrics of the
// loyalty service. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loyalty"

// ── Scan metrics ──────────────────────────────────────────────────────────────

// ScansTotal counts scan attempts.
// Label:
//   - result: "applied", "duplicate", "not_found" or "error"
var ScansTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of scan attempts, by result.",
	},
	[]string{"result"},
)

// MilestonesUnlockedTotal counts milestones reached through scans.
// Label:
//   - milestone_id: id from the milestone table
var MilestonesUnlockedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "milestones_unlocked_total",
		Help:      "Total number of milestones unlocked, by milestone.",
	},
	[]string{"milestone_id"},
)

var ResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rewards_resets_total",
		Help:      "Total number of confirmed reward journey resets.",
	},
)

// ScanQueueDepth tracks the number of scans waiting in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var ScanQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_queue_depth",
		Help:      "Current number of scans pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ScanProcessingDuration measures a scan from dequeue to response.
// Label:
//   - result: "ok" or "error"
var ScanProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_processing_duration_seconds",
		Help:      "Duration of scan processing inside the dispatcher worker.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of successful signups.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_credentials", "disabled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PolicyDecisionsTotal counts navigation decisions.
// Labels:
//   - page_class: "public", "authenticated" or "admin"
//   - action: "render", "redirect" or "loading"
var PolicyDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_decisions_total",
		Help:      "Total number of access policy decisions, by page class and action.",
	},
	[]string{"page_class", "action"},
)

// ── Report gauges (refreshed by the scheduler) ────────────────────────────────

var UsersRegistered = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users_registered",
		Help:      "Number of registered user profiles at the last report refresh.",
	},
)

var UsersActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users_active",
		Help:      "Number of users active within the report window at the last refresh.",
	},
)

var PointsIssued = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "points_outstanding",
		Help:      "Sum of all user point balances at the last report refresh.",
	},
)

// MilestoneReach is the number of users at or above each milestone.
// Label:
//   - milestone_id: id from the milestone table
var MilestoneReach = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "milestone_reach_users",
		Help:      "Number of users whose balance reaches each milestone.",
	},
	[]string{"milestone_id"},
)
