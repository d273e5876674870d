package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)
)

// Entitlement Metrics
var (
	PlanChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePlanChanges,
			Help: HelpTextPlanChanges,
		},
		[]string{LabelFromPlan, LabelToPlan},
	)

	StalePlanOverrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStalePlanOverrides,
			Help: HelpTextStalePlanOverrides,
		},
	)

	Downgrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDowngrades,
			Help: HelpTextDowngrades,
		},
		[]string{LabelRemote},
	)

	Redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRedemptions,
			Help: HelpTextRedemptions,
		},
		[]string{LabelKind},
	)

	Actions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameActions,
			Help: HelpTextActions,
		},
		[]string{LabelOutcome},
	)

	AdRewards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameAdRewards,
			Help: HelpTextAdRewards,
		},
	)

	Purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePurchases,
			Help: HelpTextPurchases,
		},
		[]string{LabelFamily},
	)

	DailyResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDailyResets,
			Help: HelpTextDailyResets,
		},
		[]string{LabelLocal},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameActiveSessions,
			Help: HelpTextActiveSessions,
		},
	)
)
