// Package live turns the document store's change feed into full-snapshot
// callbacks: on every change to a collection the subscriber re-runs the query
// and delivers the complete current matching record set, never a diff.
package live

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

// Callback receives the full ordered record set, or an empty set and an error
// when the snapshot could not be produced. A subscription error never stops
// the subscription; the next change triggers a fresh attempt.
type Callback func(records []docstore.Record, err error)

// Options shape one subscription. OrderBy and Where are passed to the
// backend; both are dropped on the degraded retry after a query failure.
type Options struct {
	OrderBy string
	Desc    bool
	Where   []docstore.Filter
	Limit   int
}

type Subscriber struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewSubscriber(store docstore.Store, log zerolog.Logger) *Subscriber {
	return &Subscriber{store: store, log: log.With().Str("component", "live").Logger()}
}

// Subscribe emits an initial snapshot and one snapshot per change until
// cancelled. The returned cancel func is idempotent and never nil: even when
// setup fails (in which case fn is called once with an empty set and the
// error), callers get a safe no-op handle.
func (s *Subscriber) Subscribe(collection string, opts Options, fn Callback) (cancel func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())

	ch, stop, err := s.store.Watch(ctx, collection)
	if err != nil {
		cancelCtx()
		s.log.Error().Err(err).Str("collection", collection).Msg("subscription setup failed")
		fn([]docstore.Record{}, err)
		return func() {}
	}

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			stop()
			cancelCtx()
		})
	}

	go func() {
		s.emit(ctx, collection, opts, fn)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.emit(ctx, collection, opts, fn)
			}
		}
	}()

	return cancel
}

// emit queries and delivers one snapshot. A failing query is retried once
// without ordering or filters; some historical documents lack the order
// field and make the backend reject the shaped query. Nothing is delivered
// once the subscription is cancelled, even if a query was already underway.
func (s *Subscriber) emit(ctx context.Context, collection string, opts Options, fn Callback) {
	docs, err := s.store.Query(ctx, collection, docstore.Query{
		Filters: opts.Where,
		OrderBy: opts.OrderBy,
		Desc:    opts.Desc,
		Limit:   opts.Limit,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Str("collection", collection).Msg("query failed, retrying unshaped")

		docs, retryErr := s.store.Query(ctx, collection, docstore.Query{})
		if ctx.Err() != nil {
			return
		}
		if retryErr != nil {
			fn([]docstore.Record{}, err)
			return
		}
		fn(docstore.MapBatch(docs), nil)
		return
	}
	if ctx.Err() != nil {
		return
	}
	fn(docstore.MapBatch(docs), nil)
}
