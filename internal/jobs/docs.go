// Package jobs provides the scheduled background tasks of the dispatch
// pipeline, built on github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. ReconciliationJob - Periodically polls the partner for the delivery
// status of sent in-flight orders and folds terminal states back into the
// local store. An extra early pass runs shortly after startup so a restart
// does not wait a full interval to catch up.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(reconcileHandler, interval, initialDelay, batchLimit, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// The reconciliation handler degrades per-order failures into its report;
// only sweep-level failures (the store being unreachable) surface here and
// are logged. A failed sweep is retried at the next tick.
package jobs
