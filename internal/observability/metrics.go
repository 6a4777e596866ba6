package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vagvanner"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ListingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "listings_submitted_total", Help: "Listings written, by role"},
		[]string{"role"},
	)
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "listing_quota_rejections_total", Help: "Listing submissions rejected by the per-role quota"},
		[]string{"role"},
	)

	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_created_total", Help: "Bookings created, by type"},
		[]string{"type"},
	)
	DuplicateBookings = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_duplicate_total", Help: "Booking creations that resolved to an existing booking"},
		[]string{"type"},
	)
	Unlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "contact_unlocks_total", Help: "Contact unlocks, by path"},
		[]string{"via"},
	)
	ReportsFiled = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "reports_filed_total", Help: "Problem reports filed within the report window"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notification_failures_total", Help: "Notification deliveries that failed and were swallowed"},
		[]string{"channel"},
	)
	AlertMatches = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "alert_matches_total", Help: "Alert subscriptions matched by new listings"},
	)
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "events_consumed_total", Help: "Listing events consumed by the alert worker"},
		[]string{"result"},
	)
)
