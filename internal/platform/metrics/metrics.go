// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casedesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	FormSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_form_saves_total",
			Help: "Form draft saves and final submissions by outcome",
		},
		[]string{"kind", "outcome"},
	)

	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_form_validation_errors_total",
			Help: "Field validation errors reported on final submission by section",
		},
		[]string{"section"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_profile_status_transitions_total",
			Help: "Applied profile status transitions",
		},
		[]string{"from", "to"},
	)

	WorkflowUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_workflow_updates_total",
			Help: "Workflow sub-status updates by field and outcome",
		},
		[]string{"field", "outcome"},
	)

	Confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_confirmations_total",
			Help: "Two-step confirmations by action kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_notifications_total",
			Help: "Outgoing notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casedesk_cache_lookups_total",
			Help: "Read cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// OutcomeOf classifies err into an outcome label.
func OutcomeOf(err error) string {
	switch apperr.CodeOf(err) {
	case "":
		return OutcomeOK
	case apperr.CodeValidation, apperr.CodeNotTerminalStep:
		return OutcomeInvalid
	case apperr.CodeConflict:
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

// CacheResult records a cache hit or miss.
func CacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// Middleware records request counts and latency keyed by the matched route,
// never the raw path, to keep label cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = apperr.ToBody(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus exposition format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
