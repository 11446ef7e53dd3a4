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

type RequestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.RequesterID = middleware.GetUserID(r.Context())

	if errs := validator.ValidateServiceRequest(input.Title, input.Division); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	req, err := h.requestService.Create(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("create request")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Service request not found")
		} else {
			log.Error().Err(err).Msg("get request")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.List(r.Context(), r.URL.Query().Get("division"))
	if err != nil {
		log.Error().Err(err).Msg("list requests")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListPending(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list pending requests")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.requestService.UpdateStatus(r.Context(), r.PathValue("id"), input.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Service request not found")
		case errors.Is(err, service.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Unknown request status")
		default:
			log.Error().Err(err).Msg("update request status")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": input.Status})
}
