package service

import (
	"context"
	"time"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/metrics"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/namespace"
)

// RecordService runs record operations inside a user's namespace. Every
// call provisions the namespace first, which for the default tenant also
// re-checks the legacy migration.
type RecordService struct {
	provisioner *namespace.Provisioner
	store       *docstore.Store
	metrics     metrics.Recorder
}

// NewRecordService creates a new RecordService.
func NewRecordService(provisioner *namespace.Provisioner, store *docstore.Store, recorder metrics.Recorder) *RecordService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RecordService{
		provisioner: provisioner,
		store:       store,
		metrics:     recorder,
	}
}

// List returns all records of kind owned by userID.
func (s *RecordService) List(ctx context.Context, userID string, kind model.CollectionKind) ([]model.Record, error) {
	h, err := s.handle(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := s.store.List(ctx, h)
	s.metrics.ObserveStorageDuration("list", time.Since(start))
	return records, err
}

// Create stores a new record built from payload.
func (s *RecordService) Create(ctx context.Context, userID string, kind model.CollectionKind, payload map[string]any) (model.Record, error) {
	h, err := s.handle(ctx, userID, kind)
	if err != nil {
		return model.Record{}, err
	}

	start := time.Now()
	record, err := s.store.Create(ctx, h, payload)
	s.metrics.ObserveStorageDuration("create", time.Since(start))
	if err != nil {
		return model.Record{}, err
	}

	s.metrics.IncRecordCreated(string(kind))
	return record, nil
}

// Update merges patch into the record with the given id.
func (s *RecordService) Update(ctx context.Context, userID string, kind model.CollectionKind, id string, patch map[string]any) (model.Record, error) {
	h, err := s.handle(ctx, userID, kind)
	if err != nil {
		return model.Record{}, err
	}

	start := time.Now()
	record, err := s.store.Update(ctx, h, id, patch)
	s.metrics.ObserveStorageDuration("update", time.Since(start))
	if err != nil {
		return model.Record{}, err
	}

	s.metrics.IncRecordUpdated(string(kind))
	return record, nil
}

// Delete removes the record with the given id.
func (s *RecordService) Delete(ctx context.Context, userID string, kind model.CollectionKind, id string) error {
	h, err := s.handle(ctx, userID, kind)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.store.Delete(ctx, h, id)
	s.metrics.ObserveStorageDuration("delete", time.Since(start))
	if err != nil {
		return err
	}

	s.metrics.IncRecordDeleted(string(kind))
	return nil
}

func (s *RecordService) handle(ctx context.Context, userID string, kind model.CollectionKind) (docstore.Handle, error) {
	if !kind.IsValid() {
		return docstore.Handle{}, invalid("unknown collection")
	}

	ns, err := s.provisioner.Ensure(ctx, userID)
	if err != nil {
		return docstore.Handle{}, err
	}
	return ns.Handle(kind)
}
