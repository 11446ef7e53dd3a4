package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gsoffice/servicedesk/internal/service"
)

type DivisionHandler struct {
	divisionService *service.DivisionService
}

func NewDivisionHandler(divisionService *service.DivisionService) *DivisionHandler {
	return &DivisionHandler{divisionService: divisionService}
}

func (h *DivisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name   string `json:"name"`
		HeadID string `json:"headId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "Division name is required")
		return
	}

	division, err := h.divisionService.Create(r.Context(), input.Name, input.HeadID)
	if err != nil {
		if errors.Is(err, service.ErrDivisionExists) {
			writeError(w, http.StatusConflict, "ALREADY_EXISTS", "Division already exists")
			return
		}
		log.Error().Err(err).Msg("create division")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, division)
}

func (h *DivisionHandler) List(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.divisionService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list divisions")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"divisions": divisions})
}
