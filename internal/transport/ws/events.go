package ws

import (
	"encoding/json"
	"time"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/docstore"
)

// Event types - Client → Server
const (
	EventTypeViewSubscribe   = "view.subscribe"
	EventTypeViewUnsubscribe = "view.unsubscribe"
	EventTypeChatSubscribe   = "chat.subscribe"
	EventTypeChatUnsubscribe = "chat.unsubscribe"
	EventTypePing            = "ping"
)

// Event types - Server → Client
const (
	EventTypeViewSnapshot = "view.snapshot"
	EventTypeChatSnapshot = "chat.snapshot"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

// ViewPayload names a collection view. Pending asks for the in-process
// case-insensitive pending filter instead of a backend filter.
type ViewPayload struct {
	Collection string `json:"collection"`
	OrderBy    string `json:"order_by,omitempty"`
	Desc       bool   `json:"desc,omitempty"`
	Field      string `json:"field,omitempty"`
	Equals     string `json:"equals,omitempty"`
	Pending    bool   `json:"pending,omitempty"`
}

type ChatPayload struct {
	PeerID string `json:"peer_id"`
}

// --- Server → Client payloads ---

type ViewSnapshotPayload struct {
	Collection string            `json:"collection"`
	Records    []docstore.Record `json:"records"`
	Error      string            `json:"error,omitempty"`
}

type ChatSnapshotPayload struct {
	PeerID   string         `json:"peer_id"`
	Messages []chat.Message `json:"messages"`
	Error    string         `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
