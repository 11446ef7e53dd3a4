package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsoffice/servicedesk/internal/docstore/memory"
	"github.com/gsoffice/servicedesk/internal/domain"
)

func TestBookingCreateAndList(t *testing.T) {
	s := NewBookingService(memory.New(), zerolog.Nop())
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	later, err := s.Create(ctx, CreateBookingInput{
		Resource:    "van-2",
		RequesterID: "u1",
		StartsAt:    start.Add(2 * time.Hour),
		EndsAt:      start.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, later.Status)

	_, err = s.Create(ctx, CreateBookingInput{
		Resource:    "van-2",
		RequesterID: "u2",
		StartsAt:    start,
		EndsAt:      start.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateBookingInput{
		Resource:    "hall-a",
		RequesterID: "u2",
		StartsAt:    start,
		EndsAt:      start.Add(time.Hour),
	})
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by start time.
	assert.True(t, !all[0].StartsAt.After(all[1].StartsAt))

	vans, err := s.List(ctx, "van-2")
	require.NoError(t, err)
	require.Len(t, vans, 2)
	assert.Equal(t, "van-2", vans[0].Resource)
}

func TestBookingCreateRejectsInvalidWindow(t *testing.T) {
	s := NewBookingService(memory.New(), zerolog.Nop())
	now := time.Now().UTC()

	_, err := s.Create(context.Background(), CreateBookingInput{
		Resource: "van-2",
		StartsAt: now,
		EndsAt:   now,
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestBookingUpdateStatus(t *testing.T) {
	s := NewBookingService(memory.New(), zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	b, err := s.Create(ctx, CreateBookingInput{Resource: "van-2", StartsAt: now, EndsAt: now.Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, b.ID, domain.StatusApproved))

	bookings, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.StatusApproved, bookings[0].Status)

	assert.ErrorIs(t, s.UpdateStatus(ctx, b.ID, "parked"), ErrInvalidStatus)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", domain.StatusDone), ErrBookingNotFound)
}

func TestDivisionCreateAndList(t *testing.T) {
	s := NewDivisionService(memory.New(), zerolog.Nop())
	ctx := context.Background()

	_, err := s.Create(ctx, "Transport", "u9")
	require.NoError(t, err)
	_, err = s.Create(ctx, "Maintenance", "")
	require.NoError(t, err)

	_, err = s.Create(ctx, "Transport", "")
	assert.ErrorIs(t, err, ErrDivisionExists)

	divisions, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, divisions, 2)
	// Sorted by name.
	assert.Equal(t, "Maintenance", divisions[0].Name)
	assert.Equal(t, "Transport", divisions[1].Name)
	assert.Equal(t, "u9", divisions[1].HeadID)
}
