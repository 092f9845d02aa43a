// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper
// functions for common logging patterns used throughout the pipeline.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation, so every line emitted for one pipeline invocation
//     can be correlated
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "talk-less/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("pipeline starting", slog.String("version", "1.0"))
//	}
//
//	func runPipeline(ctx context.Context, runID string) {
//	    logger := logging.WithRunID(logging.FromContext(ctx), runID)
//	    logger.Info("run started")
//	}
package logging
