package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeConvertsTimestamps(t *testing.T) {
	ts := Timestamp{Seconds: 1700000000, Nanoseconds: 500}

	out := Normalize(map[string]any{
		"createdAt": ts,
		"text":      "hello",
		"count":     3,
	})

	want, err := ts.ToTime()
	assert.NoError(t, err)
	assert.Equal(t, want, out["createdAt"])
	assert.Equal(t, "hello", out["text"])
	assert.Equal(t, 3, out["count"])
}

func TestNormalizeKeepsInvalidWrapper(t *testing.T) {
	bad := Timestamp{Seconds: 10, Nanoseconds: int64(2 * time.Second)}

	out := Normalize(map[string]any{"at": bad})

	assert.Equal(t, bad, out["at"])
}

func TestNormalizeNilUnchanged(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalizeNested(t *testing.T) {
	ts := Timestamp{Seconds: 1700000000}
	out := Normalize(map[string]any{
		"meta": map[string]any{"updatedAt": ts},
		"tags": []any{"a", ts},
	})

	want, _ := ts.ToTime()
	meta := out["meta"].(map[string]any)
	assert.Equal(t, want, meta["updatedAt"])
	tags := out["tags"].([]any)
	assert.Equal(t, want, tags[1])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	ts := Timestamp{Seconds: 1700000000}
	in := map[string]any{"at": ts}

	Normalize(in)

	assert.Equal(t, ts, in["at"])
}

func TestMapBatchPreservesOrder(t *testing.T) {
	docs := []Document{
		{ID: "c", Fields: map[string]any{"n": 1}},
		{ID: "a", Fields: map[string]any{"n": 2}},
		{ID: "b", Fields: map[string]any{"at": Timestamp{Seconds: 100}}},
	}

	records := MapBatch(docs)

	assert.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
	_, isTime := records[2].Fields["at"].(time.Time)
	assert.True(t, isTime)
}

func TestCompare(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Negative(t, Compare(nil, "x"))
	assert.Positive(t, Compare("x", nil))
	assert.Zero(t, Compare(nil, nil))
	assert.Negative(t, Compare(early, late))
	assert.Negative(t, Compare(Timestamp{Seconds: early.Unix()}, late))
	assert.Negative(t, Compare(1, 2.5))
	assert.Positive(t, Compare("b", "a"))
}
