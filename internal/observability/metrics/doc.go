// Package metrics provides Prometheus metrics registry and recording utilities
// for the Talk-Less pipeline.
//
// This package centralizes metrics for every pipeline stage:
//   - Ingestion: per-source fetch duration/errors, content enhancement, cache
//   - Grouping: groups formed, size distribution, ineligible candidates
//   - Summarization: validation outcomes, duration, regeneration retries
//   - Bias detection: indicator counts by rule kind
//   - Runs: whole-pipeline duration and degraded-mode outcomes
//
// All metrics are registered with the Prometheus default registry and
// exposed via the /metrics endpoint served by cmd/talkless.
package metrics
