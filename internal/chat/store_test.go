package chat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/docstore/memory"
	"github.com/gsoffice/servicedesk/internal/live"
)

func newTestStore(t *testing.T, legacyFlat bool) (*Store, *memory.Store) {
	t.Helper()
	mem := memory.New()
	sub := live.NewSubscriber(mem, zerolog.Nop())
	return NewStore(mem, sub, legacyFlat, zerolog.Nop()), mem
}

func listenCollect(t *testing.T) (ListenFunc, func() []Message) {
	t.Helper()
	ch := make(chan []Message, 16)
	fn := func(messages []Message, err error) {
		require.NoError(t, err)
		ch <- messages
	}
	next := func() []Message {
		select {
		case m := <-ch:
			return m
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for messages")
			return nil
		}
	}
	return fn, next
}

func TestSendCreatesSummaryAndMessage(t *testing.T) {
	s, mem := newTestStore(t, false)
	ctx := context.Background()

	id, err := s.Send(ctx, SendInput{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi",
		SenderName: "One",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	summary, err := mem.Get(ctx, CollectionChats, "u1_u2")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "hi", summary.Fields["lastMessage"])
	assert.Equal(t, []any{"u1", "u2"}, summary.Fields["participants"])

	msgs, err := mem.Query(ctx, MessagesPath("u1_u2"), docstore.Query{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, false, msgs[0].Fields["read"])
	// Default idempotency token is generated when none is supplied.
	assert.NotEmpty(t, msgs[0].Fields["messageId"])
}

func TestSendKeepsClientMessageID(t *testing.T) {
	s, mem := newTestStore(t, false)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "x", MessageID: "tok-1"})
	require.NoError(t, err)

	msgs, _ := mem.Query(ctx, MessagesPath("u1_u2"), docstore.Query{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "tok-1", msgs[0].Fields["messageId"])
}

func TestSendRequiresParticipants(t *testing.T) {
	s, _ := newTestStore(t, false)

	_, err := s.Send(context.Background(), SendInput{SenderID: "u1", Text: "x"})
	assert.ErrorIs(t, err, ErrMissingParticipant)
}

func TestListenEmitsOrderedMessages(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "first"})
	require.NoError(t, err)

	fn, next := listenCollect(t)
	cancel := s.Listen("u2", "u1", fn)
	defer cancel()

	first := next()
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Text)

	_, err = s.Send(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Text: "second"})
	require.NoError(t, err)

	var latest []Message
	for len(latest) < 2 {
		latest = next()
	}
	assert.Equal(t, "first", latest[0].Text)
	assert.Equal(t, "second", latest[1].Text)
	assert.True(t, !latest[1].Timestamp.Before(latest[0].Timestamp))
}

func TestListenEmptyConversation(t *testing.T) {
	s, _ := newTestStore(t, false)

	fn, next := listenCollect(t)
	cancel := s.Listen("u1", "u2", fn)
	defer cancel()

	assert.Empty(t, next())
}

func TestListenLegacyFlatFiltersPairs(t *testing.T) {
	s, mem := newTestStore(t, true)
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	// Legacy records without conversationId match on the pair.
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m1", map[string]any{
		"senderId": "u1", "receiverId": "u2", "text": "hi", "timestamp": t1,
	}, false))
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m2", map[string]any{
		"senderId": "u2", "receiverId": "u1", "text": "yo", "timestamp": t1.Add(time.Minute),
	}, false))
	// Different pair stays out.
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m3", map[string]any{
		"senderId": "u1", "receiverId": "u3", "text": "nope", "timestamp": t1,
	}, false))
	// Annotated record for the same conversation matches by id.
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m4", map[string]any{
		"senderId": "u1", "receiverId": "u2", "conversationId": "u1_u2",
		"text": "tagged", "timestamp": t1.Add(2 * time.Minute),
	}, false))

	fn, next := listenCollect(t)
	cancel := s.Listen("u1", "u2", fn)
	defer cancel()

	msgs := next()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "yo", msgs[1].Text)
	assert.Equal(t, "tagged", msgs[2].Text)
}

func TestLegacyFlatSendReachesListener(t *testing.T) {
	s, mem := newTestStore(t, true)
	ctx := context.Background()

	fn, next := listenCollect(t)
	cancel := s.Listen("u1", "u2", fn)
	defer cancel()

	assert.Empty(t, next())

	// A send while still pre-migration must land where the listener watches.
	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "hello"})
	require.NoError(t, err)

	var msgs []Message
	for len(msgs) < 1 {
		msgs = next()
	}
	assert.Equal(t, "hello", msgs[0].Text)

	flat, err := mem.Query(ctx, CollectionMessages, docstore.Query{})
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "u1_u2", flat[0].Fields["conversationId"])
}

func TestLegacyFlatMarkRead(t *testing.T) {
	s, mem := newTestStore(t, true)
	ctx := context.Background()

	// Unannotated legacy record plus a fresh send, both unread.
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m1", map[string]any{
		"senderId": "u1", "receiverId": "u2", "text": "old", "read": false,
		"timestamp": time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}, false))
	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "new"})
	require.NoError(t, err)

	updated, err := s.MarkRead(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	docs, err := mem.Query(ctx, CollectionMessages, docstore.Query{})
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, true, d.Fields["read"], d.ID)
	}
}

func TestLegacyFlatHistory(t *testing.T) {
	s, mem := newTestStore(t, true)
	ctx := context.Background()

	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m1", map[string]any{
		"senderId": "u1", "receiverId": "u2", "text": "old", "timestamp": t1,
	}, false))
	require.NoError(t, mem.Set(ctx, CollectionMessages, "m2", map[string]any{
		"senderId": "u1", "receiverId": "u3", "text": "other", "timestamp": t1,
	}, false))
	_, err := s.Send(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Text: "new"})
	require.NoError(t, err)

	msgs, err := s.History(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "old", msgs[0].Text)
	assert.Equal(t, "new", msgs[1].Text)
}

func TestMarkReadIdempotent(t *testing.T) {
	s, mem := newTestStore(t, false)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "a"})
	require.NoError(t, err)
	_, err = s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "b"})
	require.NoError(t, err)
	// A message the other way should stay untouched.
	_, err = s.Send(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Text: "c"})
	require.NoError(t, err)

	updated, err := s.MarkRead(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// Second run is a safe no-op.
	updated, err = s.MarkRead(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Zero(t, updated)

	docs, err := mem.Query(ctx, MessagesPath("u1_u2"), docstore.Query{})
	require.NoError(t, err)
	readCount := 0
	for _, d := range docs {
		if d.Fields["read"] == true {
			readCount++
			assert.Contains(t, d.Fields, "readAt")
		}
	}
	assert.Equal(t, 2, readCount)
}

func TestMarkReadNothingUnread(t *testing.T) {
	s, _ := newTestStore(t, false)

	updated, err := s.MarkRead(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestHistoryOrdered(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "one"})
	require.NoError(t, err)
	_, err = s.Send(ctx, SendInput{SenderID: "u2", ReceiverID: "u1", Text: "two"})
	require.NoError(t, err)

	msgs, err := s.History(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "two", msgs[1].Text)
}

func TestConversationSummary(t *testing.T) {
	s, _ := newTestStore(t, false)
	ctx := context.Background()

	conv, err := s.Conversation(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Nil(t, conv)

	_, err = s.Send(ctx, SendInput{SenderID: "u1", ReceiverID: "u2", Text: "latest"})
	require.NoError(t, err)

	conv, err = s.Conversation(ctx, "u2", "u1")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "latest", conv.LastMessage)
	assert.ElementsMatch(t, []string{"u1", "u2"}, conv.Participants)
	assert.False(t, conv.UpdatedAt.IsZero())
}
