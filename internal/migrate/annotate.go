// Package migrate holds the one-time backfill procedures that repair
// historical data into the current conversation shape. Every procedure is
// safe to re-run: already-repaired records are left untouched, and
// per-document failures are counted and logged without aborting the batch.
package migrate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/docstore"
)

// AnnotateCounts reports one annotate run.
type AnnotateCounts struct {
	Annotated int `json:"annotated"`
	Skipped   int `json:"skipped"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
}

// AnnotateConversations merge-writes a derived conversationId onto every
// legacy flat message that lacks one. Messages already annotated are
// skipped; messages missing either participant id are counted as missing.
func AnnotateConversations(ctx context.Context, store docstore.Store, log zerolog.Logger) (AnnotateCounts, error) {
	var counts AnnotateCounts

	docs, err := store.Query(ctx, chat.CollectionMessages, docstore.Query{})
	if err != nil {
		return counts, err
	}

	for _, doc := range docs {
		r := docstore.Record{ID: doc.ID, Fields: doc.Fields}

		if r.String("conversationId") != "" {
			counts.Skipped++
			continue
		}

		senderID := r.String("senderId")
		receiverID := r.String("receiverId")
		if senderID == "" || receiverID == "" {
			counts.Missing++
			log.Warn().Str("message", doc.ID).Msg("missing participant id, skipping")
			continue
		}

		conversationID := chat.ConversationID(senderID, receiverID)
		err := store.Update(ctx, chat.CollectionMessages, doc.ID, map[string]any{
			"conversationId": conversationID,
		})
		if err != nil {
			counts.Failed++
			log.Error().Err(err).Str("message", doc.ID).Msg("annotate failed")
			continue
		}
		counts.Annotated++
	}

	log.Info().
		Int("annotated", counts.Annotated).
		Int("skipped", counts.Skipped).
		Int("missing", counts.Missing).
		Int("failed", counts.Failed).
		Msg("annotate run complete")
	return counts, nil
}
