// Package postgres implements docstore.Store over a single JSONB documents
// table, with write notifications published through redis pub/sub so that
// subscribers on any instance see every change.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

const changeChannel = "docstore:changed"

type Store struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewStore(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *Store {
	return &Store{pool: pool, rdb: rdb, log: log.With().Str("component", "docstore").Logger()}
}

// EnsureSchema creates the documents table. Safe to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text NOT NULL,
			id         text NOT NULL,
			data       jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING gin (data jsonb_path_ops)`)
	if err != nil {
		return fmt.Errorf("creating documents index: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields, err := unmarshalFields(raw)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(encodeFields(fields))
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, raw,
	)
	if err != nil {
		return "", err
	}
	s.publish(ctx, collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	raw, err := json.Marshal(encodeFields(fields))
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	if merge {
		query = `
			INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			ON CONFLICT (collection, id)
			DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
	}

	if _, err := s.pool.Exec(ctx, query, collection, id, raw); err != nil {
		return err
	}
	s.publish(ctx, collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(encodeFields(fields))
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3, updated_at = now() WHERE collection = $1 AND id = $2`,
		collection, id, raw,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	s.publish(ctx, collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return err
	}
	s.publish(ctx, collection)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}

	if len(q.Filters) > 0 {
		contains := make(map[string]any, len(q.Filters))
		for _, f := range q.Filters {
			contains[f.Field] = encodeValue(f.Value)
		}
		raw, err := json.Marshal(contains)
		if err != nil {
			return nil, fmt.Errorf("encoding filter: %w", err)
		}
		args = append(args, raw)
		query += fmt.Sprintf(" AND data @> $%d", len(args))
	}

	if q.AfterID != "" {
		args = append(args, q.AfterID)
		query += fmt.Sprintf(" AND id > $%d", len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		// Timestamp wrappers sort by zero-padded seconds+nanos, plain
		// values textually. Missing fields sort lowest.
		dir := "ASC NULLS FIRST"
		if q.Desc {
			dir = "DESC NULLS LAST"
		}
		query += fmt.Sprintf(`
			ORDER BY CASE
				WHEN jsonb_typeof(data->$%[1]d) = 'object'
				THEN lpad(data->$%[1]d->>'_seconds', 12, '0') || lpad(coalesce(data->$%[1]d->>'_nanoseconds', '0'), 9, '0')
				ELSE data->>$%[1]d
			END %[2]s`, len(args), dir)
	} else {
		query += " ORDER BY id"
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := unmarshalFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

// Watch subscribes to the shared redis change channel and forwards signals
// for the requested collection.
func (s *Store) Watch(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	sub := s.rdb.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribing to change feed: %w", err)
	}

	ch := make(chan struct{}, 1)
	var once sync.Once
	stop := func() {
		once.Do(func() { sub.Close() })
	}

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				if msg.Payload != collection {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, stop, nil
}

func (s *Store) publish(ctx context.Context, collection string) {
	if err := s.rdb.Publish(ctx, changeChannel, collection).Err(); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("change publish failed")
	}
}

func unmarshalFields(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return decodeFields(fields), nil
}
