// Package memory implements docstore.Store in process. It backs tests and
// mirrors the behavior of the postgres adapter, including change signals.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	watchers    map[string][]chan struct{}
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[string][]chan struct{}),
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &docstore.Document{ID: id, Fields: maps.Clone(fields)}, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.col(collection)[id] = maps.Clone(fields)
	s.mu.Unlock()
	s.notify(collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	col := s.col(collection)
	if merge {
		existing, ok := col[id]
		if !ok {
			existing = make(map[string]any)
			col[id] = existing
		}
		maps.Copy(existing, maps.Clone(fields))
	} else {
		col[id] = maps.Clone(fields)
	}
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	existing, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	maps.Copy(existing, maps.Clone(fields))
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.collections[collection], id)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	var docs []docstore.Document
	for id, fields := range s.collections[collection] {
		if q.AfterID != "" && id <= q.AfterID {
			continue
		}
		if matches(fields, q.Filters) {
			docs = append(docs, docstore.Document{ID: id, Fields: maps.Clone(fields)})
		}
	}
	s.mu.Unlock()

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := docstore.Compare(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (s *Store) Watch(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[collection] = append(s.watchers[collection], ch)
	s.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ws := s.watchers[collection]
			for i, w := range ws {
				if w == ch {
					s.watchers[collection] = append(ws[:i], ws[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return ch, stop, nil
}

func (s *Store) col(collection string) map[string]map[string]any {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[collection] = col
	}
	return col
}

// notify signals every watcher of the collection. Sends happen under the
// lock so a concurrent stop cannot close a channel mid-send.
func (s *Store) notify(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func matches(fields map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		if fields[f.Field] != f.Value {
			return false
		}
	}
	return true
}
