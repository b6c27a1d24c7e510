package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Envelope field names. They are owned by the server and never taken from
// caller payloads.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
)

// RecordTimeFormat is the createdAt layout: UTC with millisecond precision,
// e.g. 2025-01-02T03:04:05.678Z.
const RecordTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrNotObject is returned when a payload is not a JSON object.
var ErrNotObject = errors.New("payload must be a JSON object")

// Record is one expense or grocery entry: a fixed envelope (ID, CreatedAt)
// plus whatever fields the client chose to send.
type Record struct {
	ID        string
	CreatedAt string
	Fields    map[string]any
}

// NewRecord builds a record from a caller payload, dropping any envelope keys
// the caller tried to set. createdAt has millisecond granularity and is
// rounded up, so it is never earlier than the given instant.
func NewRecord(id string, createdAt time.Time, payload map[string]any) Record {
	r := Record{
		ID:        id,
		CreatedAt: ceilMillisecond(createdAt).UTC().Format(RecordTimeFormat),
		Fields:    make(map[string]any, len(payload)),
	}
	for k, v := range payload {
		if isEnvelopeKey(k) {
			continue
		}
		r.Fields[k] = v
	}
	return r
}

// Merge returns a copy of r with patch applied on top. Patch fields win,
// except the envelope, which is immutable.
func (r Record) Merge(patch map[string]any) Record {
	merged := Record{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Fields:    make(map[string]any, len(r.Fields)+len(patch)),
	}
	for k, v := range r.Fields {
		merged.Fields[k] = v
	}
	for k, v := range patch {
		if isEnvelopeKey(k) {
			continue
		}
		merged.Fields[k] = v
	}
	return merged
}

// CreatedTime parses CreatedAt. Records migrated from legacy files may carry
// any timestamp layout, so callers must handle the error.
func (r Record) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, r.CreatedAt)
}

// MarshalJSON flattens the envelope and fields into one object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.ID != "" {
		out[FieldID] = r.ID
	}
	if r.CreatedAt != "" {
		out[FieldCreatedAt] = r.CreatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a stored object into envelope and fields.
// Numbers are kept as json.Number so they round-trip unchanged.
func (r *Record) UnmarshalJSON(data []byte) error {
	obj, err := DecodeObject(bytes.NewReader(data))
	if err != nil {
		return err
	}

	*r = Record{Fields: obj}
	if id, ok := obj[FieldID].(string); ok {
		r.ID = id
		delete(obj, FieldID)
	}
	if ts, ok := obj[FieldCreatedAt].(string); ok {
		r.CreatedAt = ts
		delete(obj, FieldCreatedAt)
	}
	return nil
}

// DecodeObject reads a single JSON object. An empty body or a literal null
// decodes to an empty map; anything other than an object is ErrNotObject.
func DecodeObject(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("decode object: %w", err)
	}

	switch obj := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return obj, nil
	default:
		return nil, ErrNotObject
	}
}

func ceilMillisecond(t time.Time) time.Time {
	floor := t.Truncate(time.Millisecond)
	if floor.Before(t) {
		return floor.Add(time.Millisecond)
	}
	return floor
}

func isEnvelopeKey(k string) bool {
	return k == FieldID || k == FieldCreatedAt
}
