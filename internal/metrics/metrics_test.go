package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSignup("success")
	m.IncSignup("success")
	m.IncSignup("conflict")
	m.IncRecordCreated("expenses")
	m.IncRecordDeleted("groceries")
	m.ObserveStorageDuration("create", 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.Signups["success"] != 2 {
		t.Errorf("Signups[success] = %d, want 2", snap.Signups["success"])
	}
	if snap.Signups["conflict"] != 1 {
		t.Errorf("Signups[conflict] = %d, want 1", snap.Signups["conflict"])
	}
	if snap.RecordsCreated["expenses"] != 1 {
		t.Errorf("RecordsCreated[expenses] = %d, want 1", snap.RecordsCreated["expenses"])
	}
	if snap.RecordsDeleted["groceries"] != 1 {
		t.Errorf("RecordsDeleted[groceries] = %d, want 1", snap.RecordsDeleted["groceries"])
	}
	if snap.StorageDurationCount != 1 {
		t.Errorf("StorageDurationCount = %d, want 1", snap.StorageDurationCount)
	}

	// Snapshots are copies.
	snap.Signups["success"] = 100
	if m.Snapshot().Signups["success"] != 2 {
		t.Error("snapshot mutation leaked into recorder")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := NewPrometheus(reg)

	r.IncLogin("failure")
	r.IncLogin("failure")
	r.IncRecordCreated("groceries")

	if got := testutil.ToFloat64(r.logins.WithLabelValues("failure")); got != 2 {
		t.Errorf("logins{failure} = %v, want 2", got)
	}

	expected := `
# HELP grocerytracker_records_created_total Records created by collection.
# TYPE grocerytracker_records_created_total counter
grocerytracker_records_created_total{collection="groceries"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "grocerytracker_records_created_total"); err != nil {
		t.Errorf("unexpected metrics output: %v", err)
	}
}
