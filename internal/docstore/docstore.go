// Package docstore defines the document-store boundary: collections of
// schemaless records addressed by path, with equality queries, single-field
// ordering and change notification per collection.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Timestamp is the wrapper shape the backend uses for date fields. The store
// adapter is responsible for producing it; nothing else in the codebase probes
// raw values for date-ness.
type Timestamp struct {
	Seconds     int64 `json:"_seconds"`
	Nanoseconds int64 `json:"_nanoseconds"`
}

// ToTime converts the wrapper to a native time. It fails on out-of-range
// nanoseconds, which show up in hand-edited legacy documents.
func (t Timestamp) ToTime() (time.Time, error) {
	if t.Nanoseconds < 0 || t.Nanoseconds >= int64(time.Second) {
		return time.Time{}, fmt.Errorf("timestamp nanoseconds out of range: %d", t.Nanoseconds)
	}
	return time.Unix(t.Seconds, t.Nanoseconds).UTC(), nil
}

// Document is a raw stored record: fields may still contain Timestamp wrappers.
type Document struct {
	ID     string
	Fields map[string]any
}

// Record is a normalized document: every convertible Timestamp has been
// replaced by a native time.Time.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// String returns the named field as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// Bool returns the named field as a bool, or false when absent.
func (r Record) Bool(key string) bool {
	b, _ := r.Fields[key].(bool)
	return b
}

// Time returns the named field as a time.Time and whether it was one.
func (r Record) Time(key string) (time.Time, bool) {
	t, ok := r.Fields[key].(time.Time)
	return t, ok
}

// Filter is an equality condition on a single field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents within one collection. The backend supports only
// equality filters and a single order field.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
	// AfterID pages by document id; only meaningful when OrderBy is empty,
	// in which case results come back in id order.
	AfterID string
}

// Store is the document-store boundary. Implementations never offer
// multi-document transactions; callers must not assume atomicity across
// writes to different documents.
type Store interface {
	// Get returns the document, or (nil, nil) when it does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create inserts a document with a store-assigned id and returns the id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set writes a document at a known id. With merge, unspecified fields
	// are left untouched; without, the document is replaced.
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	// Update merge-writes fields onto an existing document and returns
	// ErrNotFound when it does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Watch returns a channel that receives a signal after every write to the
	// collection, plus a stop func. The channel is closed when the context is
	// cancelled or stop is called.
	Watch(ctx context.Context, collection string) (<-chan struct{}, func(), error)
}

// SubPath joins collection path segments, e.g. SubPath("chats", id, "messages").
func SubPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// Compare orders two field values for sorting: nil/missing sorts lowest, then
// times, numbers, strings, bools. Mixed types fall back to string comparison.
func Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			return at.Compare(bt)
		}
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case Timestamp:
		t, err := val.ToTime()
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	}
	return 0, false
}
