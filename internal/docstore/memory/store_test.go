package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Create(ctx, "things", map[string]any{"name": "chair"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, "things", id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "chair", doc.Fields["name"])

	missing, err := s.Get(ctx, "things", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetMerge(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "things", "t1", map[string]any{"a": 1, "b": 2}, false))
	require.NoError(t, s.Set(ctx, "things", "t1", map[string]any{"b": 3}, true))

	doc, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Fields["a"])
	assert.Equal(t, 3, doc.Fields["b"])

	// Overwrite drops unspecified fields.
	require.NoError(t, s.Set(ctx, "things", "t1", map[string]any{"c": 4}, false))
	doc, _ = s.Get(ctx, "things", "t1")
	assert.NotContains(t, doc.Fields, "a")
	assert.Equal(t, 4, doc.Fields["c"])
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), "things", "ghost", map[string]any{"a": 1})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestQueryFiltersAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, s.Set(ctx, "msgs", "m1", map[string]any{"who": "a", "at": t2}, false))
	require.NoError(t, s.Set(ctx, "msgs", "m2", map[string]any{"who": "a", "at": t1}, false))
	require.NoError(t, s.Set(ctx, "msgs", "m3", map[string]any{"who": "b", "at": t1}, false))

	docs, err := s.Query(ctx, "msgs", docstore.Query{
		Filters: []docstore.Filter{{Field: "who", Value: "a"}},
		OrderBy: "at",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "m2", docs[0].ID)
	assert.Equal(t, "m1", docs[1].ID)

	desc, err := s.Query(ctx, "msgs", docstore.Query{OrderBy: "at", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, "m1", desc[0].ID)
}

func TestQueryAfterID(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Set(ctx, "ids", id, map[string]any{}, false))
	}

	docs, err := s.Query(ctx, "ids", docstore.Query{AfterID: "b", Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "d", docs[1].ID)
}

func TestWatchSignalsOnWrite(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop, err := s.Watch(ctx, "things")
	require.NoError(t, err)
	defer stop()

	_, err = s.Create(ctx, "things", map[string]any{"n": 1})
	require.NoError(t, err)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}

	// Writes to other collections stay silent.
	_, err = s.Create(ctx, "other", map[string]any{"n": 1})
	require.NoError(t, err)
	select {
	case <-ch:
		t.Fatal("unexpected signal for other collection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchStopIdempotent(t *testing.T) {
	s := New()
	_, stop, err := s.Watch(context.Background(), "things")
	require.NoError(t, err)

	stop()
	stop()

	require.NoError(t, s.Set(context.Background(), "things", "x", map[string]any{}, false))
}
