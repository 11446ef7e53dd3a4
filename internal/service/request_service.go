package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/domain"
	"github.com/gsoffice/servicedesk/internal/live"
)

var (
	ErrRequestNotFound = errors.New("service request not found")
	ErrInvalidStatus   = errors.New("invalid request status")
)

var validStatuses = map[string]bool{
	domain.StatusPending:  true,
	domain.StatusApproved: true,
	domain.StatusRejected: true,
	domain.StatusDone:     true,
}

// RequestService manages service requests in the document store.
type RequestService struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewRequestService(store docstore.Store, log zerolog.Logger) *RequestService {
	return &RequestService{store: store, log: log.With().Str("component", "requests").Logger()}
}

type CreateRequestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Division    string `json:"division"`
	RequesterID string `json:"requesterId"`
}

func (s *RequestService) Create(ctx context.Context, input CreateRequestInput) (*domain.ServiceRequest, error) {
	now := time.Now().UTC()
	fields := map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"division":    input.Division,
		"requesterId": input.RequesterID,
		"status":      domain.StatusPending,
		"createdAt":   now,
	}

	id, err := s.store.Create(ctx, domain.CollectionServiceRequests, fields)
	if err != nil {
		return nil, fmt.Errorf("creating service request: %w", err)
	}

	req := domain.ServiceRequestFromRecord(docstore.Record{ID: id, Fields: fields})
	return &req, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	doc, err := s.store.Get(ctx, domain.CollectionServiceRequests, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrRequestNotFound
	}
	req := domain.ServiceRequestFromRecord(docstore.Record{ID: doc.ID, Fields: docstore.Normalize(doc.Fields)})
	return &req, nil
}

// List returns requests newest first, optionally restricted to one division.
func (s *RequestService) List(ctx context.Context, division string) ([]domain.ServiceRequest, error) {
	q := docstore.Query{OrderBy: "createdAt", Desc: true}
	if division != "" {
		q.Filters = []docstore.Filter{{Field: "division", Value: division}}
	}

	docs, err := s.store.Query(ctx, domain.CollectionServiceRequests, q)
	if err != nil {
		return nil, err
	}

	requests := make([]domain.ServiceRequest, 0, len(docs))
	for _, r := range docstore.MapBatch(docs) {
		requests = append(requests, domain.ServiceRequestFromRecord(r))
	}
	return requests, nil
}

// ListPending returns the case-insensitive pending requests, newest first.
// Legacy records carry "Pending" with assorted casing, so the filter runs
// in process over the full collection.
func (s *RequestService) ListPending(ctx context.Context) ([]domain.ServiceRequest, error) {
	docs, err := s.store.Query(ctx, domain.CollectionServiceRequests, docstore.Query{})
	if err != nil {
		return nil, err
	}

	pending := live.FilterPending(docstore.MapBatch(docs), "status", "createdAt")
	requests := make([]domain.ServiceRequest, 0, len(pending))
	for _, r := range pending {
		requests = append(requests, domain.ServiceRequestFromRecord(r))
	}
	return requests, nil
}

func (s *RequestService) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}

	err := s.store.Update(ctx, domain.CollectionServiceRequests, id, map[string]any{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrRequestNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Str("request", id).Msg("status update failed")
		return err
	}
	return nil
}
