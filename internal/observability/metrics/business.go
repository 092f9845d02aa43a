package metrics

import "time"

// RecordArticlesFetched records the number of articles fetched from a source.
func RecordArticlesFetched(sourceID string, count int) {
	ArticlesFetchedTotal.WithLabelValues(sourceID).Add(float64(count))
}

// RecordArticleFiltered records an article dropped before grouping, by reason
// (the Ingestor records too_old and missing_required_field).
func RecordArticleFiltered(reason string) {
	ArticlesFilteredTotal.WithLabelValues(reason).Inc()
}

// RecordFeedFetch records the outcome of fetching a single source.
func RecordFeedFetch(sourceID string, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
}

// RecordFeedFetchError records an error while fetching a source.
func RecordFeedFetchError(sourceID, errorType string) {
	FeedFetchErrors.WithLabelValues(sourceID, errorType).Inc()
}

// RecordContentFetchSuccess records a successful content enhancement fetch.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed content enhancement fetch. The
// article falls back to its RSS-supplied content per §4.1.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a skipped content enhancement fetch. This
// occurs when the RSS-supplied content already meets the length threshold.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordContentCacheHit records a content cache lookup outcome.
func RecordContentCacheHit() { ContentCacheResultTotal.WithLabelValues("hit").Inc() }

// RecordContentCacheMiss records a content cache miss.
func RecordContentCacheMiss() { ContentCacheResultTotal.WithLabelValues("miss").Inc() }

// RecordContentCacheError records a cache backend error; callers degrade to
// an uncached fetch rather than failing the run.
func RecordContentCacheError() { ContentCacheResultTotal.WithLabelValues("error").Inc() }

// RecordGroupFormed records one eligible group and its member count.
func RecordGroupFormed(size int) {
	GroupsFormedTotal.Inc()
	GroupSize.Observe(float64(size))
}

// RecordGroupIneligible records a candidate cluster dropped by the
// eligibility filter (§4.2 invariant 3).
func RecordGroupIneligible() {
	GroupsIneligibleTotal.Inc()
}

// RecordSummaryOutcome records whether a summary was accepted or rejected
// after validation (§4.4), along with the model used and total wall time
// including any retries.
func RecordSummaryOutcome(accepted bool, model string, duration time.Duration) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	SummariesGeneratedTotal.WithLabelValues(status).Inc()
	SummarizationDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordSummaryRetry records a regeneration attempt triggered by a specific
// validation failure reason.
func RecordSummaryRetry(reason string) {
	SummaryRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordBiasIndicator records one detected indicator of the given rule kind.
func RecordBiasIndicator(kind string) {
	BiasIndicatorsTotal.WithLabelValues(kind).Inc()
}

// RecordRun records a completed pipeline run.
func RecordRun(degraded bool, duration time.Duration) {
	status := "false"
	if degraded {
		status = "true"
	}
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}
