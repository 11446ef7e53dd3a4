package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gsoffice/servicedesk/internal/service"
	"github.com/gsoffice/servicedesk/internal/transport/http/middleware"
	"github.com/gsoffice/servicedesk/pkg/validator"
)

type BookingHandler struct {
	bookingService *service.BookingService
}

func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.RequesterID = middleware.GetUserID(r.Context())

	if errs := validator.ValidateBooking(input.Resource); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	booking, err := h.bookingService.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWindow) {
			writeError(w, http.StatusBadRequest, "INVALID_WINDOW", "Booking must end after it starts")
			return
		}
		log.Error().Err(err).Msg("create booking")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.List(r.Context(), r.URL.Query().Get("resource"))
	if err != nil {
		log.Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.bookingService.UpdateStatus(r.Context(), r.PathValue("id"), input.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, service.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Unknown booking status")
		default:
			log.Error().Err(err).Msg("update booking status")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": input.Status})
}
