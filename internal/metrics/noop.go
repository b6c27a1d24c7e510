package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup(status string) {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncRecordCreated is a no-op.
func (n *NoopRecorder) IncRecordCreated(kind string) {}

// IncRecordUpdated is a no-op.
func (n *NoopRecorder) IncRecordUpdated(kind string) {}

// IncRecordDeleted is a no-op.
func (n *NoopRecorder) IncRecordDeleted(kind string) {}

// ObserveStorageDuration is a no-op.
func (n *NoopRecorder) ObserveStorageDuration(op string, duration time.Duration) {}

// IncLegacyMigration is a no-op.
func (n *NoopRecorder) IncLegacyMigration(status string) {}
