package migrate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/docstore"
)

// ChatCounts reports one flat-to-sub-stream migration run.
type ChatCounts struct {
	Migrated      int `json:"migrated"`
	Conversations int `json:"conversations"`
	Missing       int `json:"missing"`
	Failed        int `json:"failed"`
}

// ChatMigration moves legacy flat messages into per-conversation sub-streams.
// The original message id is reused as the sub-stream document id and every
// write is a merge, so re-running re-applies instead of duplicating. DryRun
// logs intended writes and reports counts without writing.
type ChatMigration struct {
	Store  docstore.Store
	DryRun bool
	Log    zerolog.Logger
}

func (m *ChatMigration) Run(ctx context.Context) (ChatCounts, error) {
	var counts ChatCounts
	seen := make(map[string]struct{})

	// Timestamp ascending so the last summary upsert per conversation
	// carries the newest message.
	docs, err := m.Store.Query(ctx, chat.CollectionMessages, docstore.Query{OrderBy: "timestamp"})
	if err != nil {
		return counts, err
	}

	for _, doc := range docs {
		r := docstore.Record{ID: doc.ID, Fields: doc.Fields}

		senderID := r.String("senderId")
		receiverID := r.String("receiverId")
		if senderID == "" || receiverID == "" {
			counts.Missing++
			m.Log.Warn().Str("message", doc.ID).Msg("missing participant id, skipping")
			continue
		}

		conversationID := chat.ConversationID(senderID, receiverID)
		if err := m.migrateOne(ctx, conversationID, doc); err != nil {
			counts.Failed++
			m.Log.Error().Err(err).Str("message", doc.ID).Msg("migrate failed")
			continue
		}

		counts.Migrated++
		seen[conversationID] = struct{}{}
	}

	counts.Conversations = len(seen)
	m.Log.Info().
		Bool("dry_run", m.DryRun).
		Int("migrated", counts.Migrated).
		Int("conversations", counts.Conversations).
		Int("missing", counts.Missing).
		Int("failed", counts.Failed).
		Msg("chat migration complete")
	return counts, nil
}

func (m *ChatMigration) migrateOne(ctx context.Context, conversationID string, doc docstore.Document) error {
	r := docstore.Record{ID: doc.ID, Fields: docstore.Normalize(doc.Fields)}

	fields := make(map[string]any, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	fields["conversationId"] = conversationID

	// Prefer the message's own timestamp over now for the summary.
	updatedAt := time.Now().UTC()
	if t, ok := r.Time("timestamp"); ok {
		updatedAt = t
	}
	a, b := r.String("senderId"), r.String("receiverId")
	if a > b {
		a, b = b, a
	}
	summary := map[string]any{
		"participants": []any{a, b},
		"lastMessage":  r.String("text"),
		"updatedAt":    updatedAt,
	}

	if m.DryRun {
		m.Log.Info().
			Str("message", doc.ID).
			Str("conversation", conversationID).
			Msg("dry run: would merge message into sub-stream and upsert summary")
		return nil
	}

	if err := m.Store.Set(ctx, chat.MessagesPath(conversationID), doc.ID, fields, true); err != nil {
		return err
	}
	return m.Store.Set(ctx, chat.CollectionChats, conversationID, summary, true)
}
