// Package domain holds typed views over the office's document collections.
// Records stay schemaless in the store; these types are the shapes the
// transport layer speaks.
package domain

import (
	"time"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

const (
	CollectionServiceRequests = "serviceRequests"
	CollectionBookings        = "bookings"
	CollectionDivisions       = "divisions"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusDone     = "done"
)

// ServiceRequest is one request for office services (repairs, supplies,
// transport and the like).
type ServiceRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Division    string    `json:"division"`
	RequesterID string    `json:"requesterId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Booking reserves a shared resource (vehicle, hall, equipment) for a window.
type Booking struct {
	ID          string    `json:"id"`
	Resource    string    `json:"resource"`
	RequesterID string    `json:"requesterId"`
	Status      string    `json:"status"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Division is one organizational unit of the office.
type Division struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	HeadID string `json:"headId,omitempty"`
}

func ServiceRequestFromRecord(r docstore.Record) ServiceRequest {
	req := ServiceRequest{
		ID:          r.ID,
		Title:       r.String("title"),
		Description: r.String("description"),
		Division:    r.String("division"),
		RequesterID: r.String("requesterId"),
		Status:      r.String("status"),
	}
	if t, ok := r.Time("createdAt"); ok {
		req.CreatedAt = t
	}
	if t, ok := r.Time("updatedAt"); ok {
		req.UpdatedAt = t
	}
	return req
}

func BookingFromRecord(r docstore.Record) Booking {
	b := Booking{
		ID:          r.ID,
		Resource:    r.String("resource"),
		RequesterID: r.String("requesterId"),
		Status:      r.String("status"),
	}
	if t, ok := r.Time("startsAt"); ok {
		b.StartsAt = t
	}
	if t, ok := r.Time("endsAt"); ok {
		b.EndsAt = t
	}
	if t, ok := r.Time("createdAt"); ok {
		b.CreatedAt = t
	}
	return b
}

func DivisionFromRecord(r docstore.Record) Division {
	return Division{
		ID:     r.ID,
		Name:   r.String("name"),
		HeadID: r.String("headId"),
	}
}
