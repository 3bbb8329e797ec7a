package types

// Telemetry metric names for CloudWatch.
// All components use these constants.
const (
	// Metric Names
	MetricSearchOutcome      = "SearchOutcome"
	MetricSearchLatency      = "SearchLatency"
	MetricSummaryOutcome     = "SummaryOutcome"
	MetricAPILatency         = "APILatency"
	MetricExternalAPIFailure = "ExternalAPIFailure"

	// Dimension Keys
	DimMode     = "Mode"
	DimOutcome  = "Outcome"
	DimEndpoint = "Endpoint"
	DimProvider = "Provider"

	// Metric Namespace
	MetricNamespace = "Skycast"
)

// Search outcomes reported under DimOutcome.
const (
	OutcomeSuccess      = "success"
	OutcomeEmptyQuery   = "empty_query"
	OutcomeCityNotFound = "city_not_found"
	OutcomeFetchFailed  = "fetch_failed"
	OutcomeStale        = "stale"
	OutcomeUnavailable  = "unavailable"
)
