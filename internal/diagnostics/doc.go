// Package diagnostics records the region of every environment the service
// activates so it can be attached to crash and error reports.
//
// Reports go through a buffered channel and are applied by a dedicated
// goroutine:
//
//	collector := diagnostics.NewCollector(64, logger, prometheus.NewRegistry())
//	collector.Start(ctx)
//
//	collector.SetRegion(environment.SelfHosted, true)
//
//	snapshot := collector.Snapshot()
//
// Pending reports are drained when the context is cancelled. The latest
// region is exposed as JSON through Handler and as Prometheus metrics.
package diagnostics
