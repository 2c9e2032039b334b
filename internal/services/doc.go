// Package services sits between the HTTP handlers, the scheduler and the
// watcher on one side and the standardizer and feature pipeline on the other.
//
//   - PipelineService runs the standardizer and the feature batch, one run at a time.
//   - DataService lists symbols and serves cached feature series.
//   - HealthService reports liveness and readiness.
package services
