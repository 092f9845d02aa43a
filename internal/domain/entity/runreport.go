package entity

import "time"

// RunReport is the single artifact produced by a pipeline invocation
// (§3, §6). It is built incrementally by the Orchestrator across stages and
// is safe to emit in partial form if a deadline expires mid-run.
type RunReport struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time

	SourcesConfigured int
	SourcesFailed     []string // source ids that contributed zero articles

	ArticlesFetched int
	ArticlesFiltered int // age-filtered / skip-on-parse count

	Groups          int
	GroupsIneligible int // groups below min_articles_per_group or min distinct sources

	SummariesGenerated int
	SummaryFailures    map[string]string // group id -> failure reason

	BiasIndicators     int
	BiasBySource       map[string]float64 // source id -> mean indicators per article

	Degraded bool
	Warnings []string
}

// NewRunReport creates an empty report for a new run.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:           runID,
		StartedAt:       startedAt,
		SummaryFailures: make(map[string]string),
		BiasBySource:    make(map[string]float64),
	}
}

// AddWarning appends a warning and marks the report degraded.
func (r *RunReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
	r.Degraded = true
}

// Finish stamps the end time.
func (r *RunReport) Finish(endedAt time.Time) {
	r.EndedAt = endedAt
}
