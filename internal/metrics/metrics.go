// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Auth metrics
	IncSignup(status string) // status: "success", "conflict", "invalid", "error"
	IncLogin(status string)  // status: "success", "failure", "invalid", "error"

	// Record metrics, labelled by collection kind
	IncRecordCreated(kind string)
	IncRecordUpdated(kind string)
	IncRecordDeleted(kind string)
	ObserveStorageDuration(op string, duration time.Duration)

	// Legacy migration outcomes: "skipped", "migrated", "failed"
	IncLegacyMigration(status string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
