package ws

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueBeforeAndAfterClose(t *testing.T) {
	hub := NewHub(nil, nil, zerolog.Nop())
	c := NewClient(hub, nil, "u1", zerolog.Nop())

	c.push(EventTypeViewSnapshot, ViewSnapshotPayload{Collection: "bookings"})
	require.Len(t, c.send, 1)

	c.closeSend()

	// A snapshot arriving after disconnect is dropped, not sent on the
	// closed channel.
	c.push(EventTypeViewSnapshot, ViewSnapshotPayload{Collection: "bookings"})
	c.sendPong()

	// Teardown is idempotent.
	c.closeSend()

	_, ok := <-c.done
	assert.False(t, ok)
}

func TestTrackReplacesPriorSubscription(t *testing.T) {
	hub := NewHub(nil, nil, zerolog.Nop())
	c := NewClient(hub, nil, "u1", zerolog.Nop())

	firstCancelled := false
	c.track("view:items", func() { firstCancelled = true })
	c.track("view:items", func() {})
	assert.True(t, firstCancelled)

	cancelled := false
	c.track("chat:u2", func() { cancelled = true })
	c.cancelAll()
	assert.True(t, cancelled)
	assert.Empty(t, c.subscriptions)
}
