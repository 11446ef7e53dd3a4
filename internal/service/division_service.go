package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/domain"
)

var ErrDivisionExists = errors.New("division already exists")

// DivisionService manages the office's organizational units.
type DivisionService struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewDivisionService(store docstore.Store, log zerolog.Logger) *DivisionService {
	return &DivisionService{store: store, log: log.With().Str("component", "divisions").Logger()}
}

func (s *DivisionService) Create(ctx context.Context, name, headID string) (*domain.Division, error) {
	existing, err := s.store.Query(ctx, domain.CollectionDivisions, docstore.Query{
		Filters: []docstore.Filter{{Field: "name", Value: name}},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrDivisionExists
	}

	fields := map[string]any{"name": name}
	if headID != "" {
		fields["headId"] = headID
	}

	id, err := s.store.Create(ctx, domain.CollectionDivisions, fields)
	if err != nil {
		return nil, fmt.Errorf("creating division: %w", err)
	}

	d := domain.DivisionFromRecord(docstore.Record{ID: id, Fields: fields})
	return &d, nil
}

// List returns all divisions sorted by name.
func (s *DivisionService) List(ctx context.Context) ([]domain.Division, error) {
	docs, err := s.store.Query(ctx, domain.CollectionDivisions, docstore.Query{OrderBy: "name"})
	if err != nil {
		return nil, err
	}

	divisions := make([]domain.Division, 0, len(docs))
	for _, r := range docstore.MapBatch(docs) {
		divisions = append(divisions, domain.DivisionFromRecord(r))
	}
	return divisions, nil
}
