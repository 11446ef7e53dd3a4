package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/domain"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidWindow   = errors.New("booking window is invalid")
)

// BookingService manages reservations of shared resources.
type BookingService struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewBookingService(store docstore.Store, log zerolog.Logger) *BookingService {
	return &BookingService{store: store, log: log.With().Str("component", "bookings").Logger()}
}

type CreateBookingInput struct {
	Resource    string    `json:"resource"`
	RequesterID string    `json:"requesterId"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidWindow
	}

	fields := map[string]any{
		"resource":    input.Resource,
		"requesterId": input.RequesterID,
		"status":      domain.StatusPending,
		"startsAt":    input.StartsAt,
		"endsAt":      input.EndsAt,
		"createdAt":   time.Now().UTC(),
	}

	id, err := s.store.Create(ctx, domain.CollectionBookings, fields)
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	b := domain.BookingFromRecord(docstore.Record{ID: id, Fields: fields})
	return &b, nil
}

// List returns bookings by start time, optionally restricted to one resource.
func (s *BookingService) List(ctx context.Context, resource string) ([]domain.Booking, error) {
	q := docstore.Query{OrderBy: "startsAt"}
	if resource != "" {
		q.Filters = []docstore.Filter{{Field: "resource", Value: resource}}
	}

	docs, err := s.store.Query(ctx, domain.CollectionBookings, q)
	if err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(docs))
	for _, r := range docstore.MapBatch(docs) {
		bookings = append(bookings, domain.BookingFromRecord(r))
	}
	return bookings, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}

	err := s.store.Update(ctx, domain.CollectionBookings, id, map[string]any{
		"status": status,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Str("booking", id).Msg("status update failed")
		return err
	}
	return nil
}
