package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/live"
)

var ErrMissingParticipant = errors.New("sender and receiver ids are required")

// Store owns conversation summaries, message sub-streams and read state.
type Store struct {
	store docstore.Store
	sub   *live.Subscriber
	log   zerolog.Logger

	// legacyFlat listens on the flat message collection instead of the
	// per-conversation sub-streams; used until the chat migration has run.
	legacyFlat bool
}

func NewStore(store docstore.Store, sub *live.Subscriber, legacyFlat bool, log zerolog.Logger) *Store {
	return &Store{
		store:      store,
		sub:        sub,
		legacyFlat: legacyFlat,
		log:        log.With().Str("component", "chat").Logger(),
	}
}

// ListenFunc receives the full conversation message list, oldest first, on
// every change.
type ListenFunc func(messages []Message, err error)

// Listen subscribes to the conversation between two users. The returned
// cancel func is idempotent. Zero messages emit an empty list, not an error.
func (s *Store) Listen(userA, userB string, fn ListenFunc) (cancel func()) {
	conversationID := ConversationID(userA, userB)

	if s.legacyFlat {
		return s.listenLegacy(conversationID, userA, userB, fn)
	}

	return s.sub.Subscribe(MessagesPath(conversationID), live.Options{OrderBy: "timestamp"},
		func(records []docstore.Record, err error) {
			if err != nil {
				fn([]Message{}, err)
				return
			}
			fn(messagesFromRecords(records), nil)
		})
}

// listenLegacy watches the flat collection and filters client-side: records
// without a conversationId are matched on the sender/receiver pair.
func (s *Store) listenLegacy(conversationID, userA, userB string, fn ListenFunc) func() {
	return s.sub.Subscribe(CollectionMessages, live.Options{OrderBy: "timestamp"},
		func(records []docstore.Record, err error) {
			if err != nil {
				fn([]Message{}, err)
				return
			}
			fn(filterConversation(records, conversationID, userA, userB), nil)
		})
}

// messagesCollection is where this deployment's messages live: the flat
// collection before the chat migration has run, the per-conversation
// sub-stream after. Send, History and MarkRead must all use the same one or
// legacy listeners never see new messages.
func (s *Store) messagesCollection(conversationID string) string {
	if s.legacyFlat {
		return CollectionMessages
	}
	return MessagesPath(conversationID)
}

// SendInput carries one outgoing message. MessageID is optional; when empty
// a client idempotency token is generated from the current time.
type SendInput struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	SenderName string `json:"senderName"`
	MessageID  string `json:"messageId"`
}

// Send upserts the conversation summary and appends the message, returning
// the new message's store-assigned id. The two writes are independent; no
// atomicity is guaranteed between them.
func (s *Store) Send(ctx context.Context, in SendInput) (string, error) {
	if in.SenderID == "" || in.ReceiverID == "" {
		return "", ErrMissingParticipant
	}

	conversationID := ConversationID(in.SenderID, in.ReceiverID)
	now := time.Now().UTC()

	messageID := in.MessageID
	if messageID == "" {
		messageID = strconv.FormatInt(now.UnixMilli(), 10)
	}

	summary := map[string]any{
		"participants": []any{in.SenderID, in.ReceiverID},
		"lastMessage":  in.Text,
		"updatedAt":    now,
	}
	if err := s.store.Set(ctx, CollectionChats, conversationID, summary, true); err != nil {
		s.log.Error().Err(err).Str("conversation", conversationID).Msg("summary upsert failed")
		return "", fmt.Errorf("upserting conversation summary: %w", err)
	}

	id, err := s.store.Create(ctx, s.messagesCollection(conversationID), map[string]any{
		"senderId":       in.SenderID,
		"receiverId":     in.ReceiverID,
		"conversationId": conversationID,
		"text":           in.Text,
		"senderName":     in.SenderName,
		"messageId":      messageID,
		"read":           false,
		"timestamp":      now,
	})
	if err != nil {
		s.log.Error().Err(err).Str("conversation", conversationID).Msg("message append failed")
		return "", fmt.Errorf("appending message: %w", err)
	}

	return id, nil
}

// History returns the conversation's messages oldest first, one shot.
func (s *Store) History(ctx context.Context, userA, userB string) ([]Message, error) {
	conversationID := ConversationID(userA, userB)
	docs, err := s.store.Query(ctx, s.messagesCollection(conversationID), docstore.Query{OrderBy: "timestamp"})
	if err != nil {
		return nil, err
	}
	records := docstore.MapBatch(docs)
	if s.legacyFlat {
		return filterConversation(records, conversationID, userA, userB), nil
	}
	return messagesFromRecords(records), nil
}

// Conversation returns the summary document, or (nil, nil) when the two
// users have never exchanged a message.
func (s *Store) Conversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	doc, err := s.store.Get(ctx, CollectionChats, ConversationID(userA, userB))
	if err != nil || doc == nil {
		return nil, err
	}
	c := conversationFromRecord(docstore.Record{ID: doc.ID, Fields: docstore.Normalize(doc.Fields)})
	return &c, nil
}

// MarkRead flips every unread message sent by otherID to userID to read,
// stamping readAt. Re-running with nothing unread is a no-op; concurrent
// runs redundantly re-set the same fields. Returns how many were updated.
func (s *Store) MarkRead(ctx context.Context, userID, otherID string) (int, error) {
	collection := s.messagesCollection(ConversationID(userID, otherID))

	docs, err := s.store.Query(ctx, collection, docstore.Query{
		Filters: []docstore.Filter{
			{Field: "receiverId", Value: userID},
			{Field: "senderId", Value: otherID},
			{Field: "read", Value: false},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("querying unread messages: %w", err)
	}

	now := time.Now().UTC()
	updated := 0
	for _, doc := range docs {
		err := s.store.Update(ctx, collection, doc.ID, map[string]any{
			"read":   true,
			"readAt": now,
		})
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			s.log.Error().Err(err).Str("message", doc.ID).Msg("mark read failed")
			return updated, fmt.Errorf("marking message read: %w", err)
		}
		updated++
	}
	return updated, nil
}

func messagesFromRecords(records []docstore.Record) []Message {
	messages := make([]Message, len(records))
	for i, r := range records {
		messages[i] = messageFromRecord(r)
	}
	return messages
}

// filterConversation keeps the records belonging to one conversation:
// annotated records match on conversationId, unannotated legacy records on
// the sender/receiver pair.
func filterConversation(records []docstore.Record, conversationID, userA, userB string) []Message {
	messages := make([]Message, 0, len(records))
	for _, r := range records {
		m := messageFromRecord(r)
		switch {
		case m.ConversationID == conversationID:
			messages = append(messages, m)
		case m.ConversationID == "" && samePair(m, userA, userB):
			messages = append(messages, m)
		}
	}
	return messages
}

func samePair(m Message, userA, userB string) bool {
	return (m.SenderID == userA && m.ReceiverID == userB) ||
		(m.SenderID == userB && m.ReceiverID == userA)
}
