package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/transport/http/middleware"
	"github.com/gsoffice/servicedesk/pkg/validator"
)

type ChatHandler struct {
	chatStore *chat.Store
}

func NewChatHandler(chatStore *chat.Store) *ChatHandler {
	return &ChatHandler{chatStore: chatStore}
}

// SendMessage appends a message and returns its store-assigned id. Clients
// render the message optimistically and reconcile against this id; a non-2xx
// response tells them to roll the optimistic entry back and restore the
// unsent text.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := middleware.GetUserID(r.Context())

	var input chat.SendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.SenderID = senderID

	if errs := validator.ValidateSendMessage(input.ReceiverID, input.Text); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	id, err := h.chatStore.Send(r.Context(), input)
	if err != nil {
		if errors.Is(err, chat.ErrMissingParticipant) {
			writeError(w, http.StatusBadRequest, "MISSING_PARTICIPANT", "Sender and receiver are required")
		} else {
			log.Error().Err(err).Msg("send message")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := r.PathValue("uid")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "Peer user id is required")
		return
	}

	messages, err := h.chatStore.History(r.Context(), userID, otherID)
	if err != nil {
		log.Error().Err(err).Msg("list messages")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := r.PathValue("uid")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "Peer user id is required")
		return
	}

	conv, err := h.chatStore.Conversation(r.Context(), userID, otherID)
	if err != nil {
		log.Error().Err(err).Msg("get conversation")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No conversation with this user yet")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// MarkRead flips every unread message from the peer to read. Safe to call
// repeatedly and from several sessions at once.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := r.PathValue("uid")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "Peer user id is required")
		return
	}

	updated, err := h.chatStore.MarkRead(r.Context(), userID, otherID)
	if err != nil {
		log.Error().Err(err).Msg("mark read")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
