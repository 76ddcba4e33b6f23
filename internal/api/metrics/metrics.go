// Package metrics defines and registers all custom Prometheus metrics for the
// legal vault. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vault"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionResolutionsTotal counts applied session resolutions.
// Label:
//   - outcome: "signed_out", "inactive", "profile_unavailable", "active", "admin"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of session resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// StaleUpdatesTotal counts session updates discarded because a newer one was
// already applied.
var StaleUpdatesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_stale_updates_total",
		Help:      "Total number of session updates discarded as stale.",
	},
)

// ForcedSignOutsTotal counts sessions invalidated because the profile was not active.
var ForcedSignOutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_sign_outs_total",
		Help:      "Total number of sessions signed out because the account was not active.",
	},
)

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - access: "public", "authenticated", "admin"
//   - state: "authorized", "unauthorized", "unresolved"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by required access and outcome.",
	},
	[]string{"access", "state"},
)

// LoginsTotal counts sign-in attempts.
// Label:
//   - result: "success", "failed", "inactive", "unresolved"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// ── Document metrics ──────────────────────────────────────────────────────────

// DocumentsUploadedTotal counts accepted uploads.
// Label:
//   - type: the document type (e.g. "contract")
var DocumentsUploadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_uploaded_total",
		Help:      "Total number of documents uploaded, by document type.",
	},
	[]string{"type"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailDispatchedTotal counts mail delivery attempts.
// Labels:
//   - kind: "confirm_signup", "reset_password", "change_email"
//   - result: "sent", "failed" or "dropped"
var MailDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_dispatched_total",
		Help:      "Total number of transactional emails dispatched, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueDepth tracks mail waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/admin/users/:userId")
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration observes request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
