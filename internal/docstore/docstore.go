// Package docstore is the CRUD engine over one user's record collections.
//
// A collection is a JSON array stored in a single file. Every mutation reads
// the whole array, changes it in memory and replaces the file atomically.
// Mutations of the same file are serialized through a Locker so concurrent
// writers cannot lose each other's updates; reads take no lock.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/jsonfile"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// StorageError reports an unreadable or unwritable collection file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Handle addresses one collection file of one user.
type Handle struct {
	UserID string
	Kind   model.CollectionKind
	Path   string
}

// Store performs record operations on collection files.
type Store struct {
	locks *Locker
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		locks: NewLocker(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every record of the collection in insertion order.
func (s *Store) List(ctx context.Context, h Handle) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read(h)
}

// Create appends a record built from payload, assigning a fresh ID and
// creation time.
func (s *Store) Create(ctx context.Context, h Handle, payload map[string]any) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}

	unlock := s.locks.Lock(h.Path)
	defer unlock()

	items, err := s.read(h)
	if err != nil {
		return model.Record{}, err
	}

	rec := model.NewRecord(s.newID(), s.now(), payload)
	items = append(items, rec)

	if err := s.write(h, items); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

// Update shallow-merges patch into the record with the given ID.
func (s *Store) Update(ctx context.Context, h Handle, id string, patch map[string]any) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return model.Record{}, err
	}

	unlock := s.locks.Lock(h.Path)
	defer unlock()

	items, err := s.read(h)
	if err != nil {
		return model.Record{}, err
	}

	index := -1
	for i := range items {
		if items[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return model.Record{}, ErrNotFound
	}

	updated := items[index].Merge(patch)
	items[index] = updated

	if err := s.write(h, items); err != nil {
		return model.Record{}, err
	}
	return updated, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, h Handle, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.Lock(h.Path)
	defer unlock()

	items, err := s.read(h)
	if err != nil {
		return err
	}

	next := make([]model.Record, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(items) {
		return ErrNotFound
	}

	return s.write(h, next)
}

func (s *Store) read(h Handle) ([]model.Record, error) {
	items, err := jsonfile.ReadArray[model.Record](h.Path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: h.Path, Err: err}
	}
	return items, nil
}

func (s *Store) write(h Handle, items []model.Record) error {
	if err := jsonfile.WriteAtomic(h.Path, items); err != nil {
		return &StorageError{Op: "write", Path: h.Path, Err: err}
	}
	return nil
}
