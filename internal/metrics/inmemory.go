package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups                map[string]uint64
	Logins                 map[string]uint64
	RecordsCreated         map[string]uint64
	RecordsUpdated         map[string]uint64
	RecordsDeleted         map[string]uint64
	LegacyMigrations       map[string]uint64
	StorageDurationCount   uint64
	StorageDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                     sync.Mutex
	signups                map[string]uint64
	logins                 map[string]uint64
	recordsCreated         map[string]uint64
	recordsUpdated         map[string]uint64
	recordsDeleted         map[string]uint64
	legacyMigrations       map[string]uint64
	storageDurationCount   uint64
	storageDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signups:          make(map[string]uint64),
		logins:           make(map[string]uint64),
		recordsCreated:   make(map[string]uint64),
		recordsUpdated:   make(map[string]uint64),
		recordsDeleted:   make(map[string]uint64),
		legacyMigrations: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Signups:                copyCounts(m.signups),
		Logins:                 copyCounts(m.logins),
		RecordsCreated:         copyCounts(m.recordsCreated),
		RecordsUpdated:         copyCounts(m.recordsUpdated),
		RecordsDeleted:         copyCounts(m.recordsDeleted),
		LegacyMigrations:       copyCounts(m.legacyMigrations),
		StorageDurationCount:   atomic.LoadUint64(&m.storageDurationCount),
		StorageDurationTotalNs: atomic.LoadInt64(&m.storageDurationTotalNs),
	}
}

// IncSignup increments the signup counter for status.
func (m *InMemoryRecorder) IncSignup(status string) {
	m.inc(m.signups, status)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.inc(m.logins, status)
}

// IncRecordCreated increments the created counter for kind.
func (m *InMemoryRecorder) IncRecordCreated(kind string) {
	m.inc(m.recordsCreated, kind)
}

// IncRecordUpdated increments the updated counter for kind.
func (m *InMemoryRecorder) IncRecordUpdated(kind string) {
	m.inc(m.recordsUpdated, kind)
}

// IncRecordDeleted increments the deleted counter for kind.
func (m *InMemoryRecorder) IncRecordDeleted(kind string) {
	m.inc(m.recordsDeleted, kind)
}

// ObserveStorageDuration records storage operation duration.
func (m *InMemoryRecorder) ObserveStorageDuration(op string, duration time.Duration) {
	atomic.AddUint64(&m.storageDurationCount, 1)
	atomic.AddInt64(&m.storageDurationTotalNs, duration.Nanoseconds())
}

// IncLegacyMigration increments the migration counter for status.
func (m *InMemoryRecorder) IncLegacyMigration(status string) {
	m.inc(m.legacyMigrations, status)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ Snapshotter = (*InMemoryRecorder)(nil)
