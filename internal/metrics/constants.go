package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished = "events_published_total"
)

// Entitlement metric names
const (
	MetricNamePlanChanges        = "entitlement_plan_changes_total"
	MetricNameStalePlanOverrides = "entitlement_stale_plan_overrides_total"
	MetricNameDowngrades         = "entitlement_downgrades_total"
	MetricNameRedemptions        = "entitlement_redemptions_total"
	MetricNameActions            = "entitlement_actions_total"
	MetricNameAdRewards          = "entitlement_ad_rewards_total"
	MetricNamePurchases          = "entitlement_purchases_total"
	MetricNameDailyResets        = "entitlement_daily_resets_total"
	MetricNameActiveSessions     = "entitlement_active_sessions"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished = "Total number of events published"
)

// Entitlement metric help text
const (
	HelpTextPlanChanges        = "Effective plan transitions"
	HelpTextStalePlanOverrides = "Remote plans replaced by purchase authority entitlements"
	HelpTextDowngrades         = "Paid plans revoked after entitlements lapsed"
	HelpTextRedemptions        = "Promo and referral codes redeemed"
	HelpTextActions            = "Metered actions by outcome"
	HelpTextAdRewards          = "Rewarded ads credited"
	HelpTextPurchases          = "Completed purchases by product family"
	HelpTextDailyResets        = "Daily counter resets requested"
	HelpTextActiveSessions     = "Entitlement engines currently held in the session registry"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelFromPlan = "from_plan"
	LabelToPlan   = "to_plan"
	LabelRemote   = "remote"
	LabelKind     = "kind"
	LabelOutcome  = "outcome"
	LabelFamily   = "family"
	LabelLocal    = "local"
)

// Label values
const (
	KindPromo       = "promo"
	KindReferral    = "referral"
	OutcomeConsumed = "consumed"
	OutcomeDenied   = "denied"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadInvalid = "Event payload could not be decoded"
	LogMsgMetricsRecorded     = "Metrics recorded for event"
)
