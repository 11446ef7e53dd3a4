package docstore

// Normalize replaces every Timestamp wrapper in fields with its native time
// value, descending into nested maps. Wrappers that fail conversion are kept
// as-is. A nil map is returned unchanged. The input map is not mutated.
func Normalize(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case Timestamp:
		t, err := val.ToTime()
		if err != nil {
			return val
		}
		return t
	case map[string]any:
		return Normalize(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// MapBatch converts raw documents into normalized records, preserving the
// input order.
func MapBatch(docs []Document) []Record {
	records := make([]Record, len(docs))
	for i, doc := range docs {
		records[i] = Record{ID: doc.ID, Fields: Normalize(doc.Fields)}
	}
	return records
}
