package postgres

import (
	"time"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

// The backend stores date fields as {"_seconds":N,"_nanoseconds":N} objects.
// Legacy exports already use this shape, so new writes keep it.

func encodeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return map[string]any{
			"_seconds":     val.Unix(),
			"_nanoseconds": int64(val.Nanosecond()),
		}
	case docstore.Timestamp:
		return map[string]any{
			"_seconds":     val.Seconds,
			"_nanoseconds": val.Nanoseconds,
		}
	case map[string]any:
		return encodeFields(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = encodeValue(item)
		}
		return out
	default:
		return v
	}
}

func decodeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if ts, ok := asTimestamp(val); ok {
			return ts
		}
		return decodeFields(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return v
	}
}

func asTimestamp(m map[string]any) (docstore.Timestamp, bool) {
	if len(m) != 2 {
		return docstore.Timestamp{}, false
	}
	secs, ok := m["_seconds"].(float64)
	if !ok {
		return docstore.Timestamp{}, false
	}
	nanos, ok := m["_nanoseconds"].(float64)
	if !ok {
		return docstore.Timestamp{}, false
	}
	return docstore.Timestamp{Seconds: int64(secs), Nanoseconds: int64(nanos)}, true
}
