package chat

import (
	"time"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

const (
	// CollectionChats holds one summary document per conversation; each
	// conversation's messages live in a sub-stream under it.
	CollectionChats = "chats"
	// CollectionMessages is the legacy flat message collection that
	// pre-dates the per-conversation sub-streams.
	CollectionMessages = "messages"
)

// MessagesPath returns the sub-stream collection for a conversation.
func MessagesPath(conversationID string) string {
	return docstore.SubPath(CollectionChats, conversationID, "messages")
}

// Message is one chat message. MessageID is the client-assigned idempotency
// token; ID is store-assigned.
type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	ConversationID string    `json:"conversationId"`
	Text           string    `json:"text"`
	SenderName     string    `json:"senderName"`
	MessageID      string    `json:"messageId"`
	Read           bool      `json:"read"`
	Timestamp      time.Time `json:"timestamp"`
	ReadAt         time.Time `json:"readAt,omitempty"`
}

// Conversation is the summary document for one two-party conversation.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	LastMessage  string    `json:"lastMessage"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func messageFromRecord(r docstore.Record) Message {
	m := Message{
		ID:             r.ID,
		SenderID:       r.String("senderId"),
		ReceiverID:     r.String("receiverId"),
		ConversationID: r.String("conversationId"),
		Text:           r.String("text"),
		SenderName:     r.String("senderName"),
		MessageID:      r.String("messageId"),
		Read:           r.Bool("read"),
	}
	if t, ok := r.Time("timestamp"); ok {
		m.Timestamp = t
	}
	if t, ok := r.Time("readAt"); ok {
		m.ReadAt = t
	}
	return m
}

func conversationFromRecord(r docstore.Record) Conversation {
	c := Conversation{
		ID:          r.ID,
		LastMessage: r.String("lastMessage"),
	}
	if t, ok := r.Time("updatedAt"); ok {
		c.UpdatedAt = t
	}
	if parts, ok := r.Fields["participants"].([]any); ok {
		for _, p := range parts {
			if s, ok := p.(string); ok {
				c.Participants = append(c.Participants, s)
			}
		}
	}
	return c
}
