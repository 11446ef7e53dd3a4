package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/docstore"
	"github.com/gsoffice/servicedesk/internal/live"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection. Each live view the client
// subscribes to owns a cancellation handle; all of them are cancelled on
// disconnect so no backend listener leaks.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	uid  string
	log  zerolog.Logger

	// subscriptions maps view key → cancel. Re-subscribing the same key
	// cancels the previous listener first (last writer wins locally).
	subscriptions map[string]func()
	mu            sync.Mutex

	// closed marks the send channel as unusable. Snapshots can arrive
	// after teardown because cancelling a subscription does not wait for
	// an in-flight emission; enqueue drops them instead of sending on a
	// closed channel.
	closed bool

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, uid string, log zerolog.Logger) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		uid:           uid,
		log:           log,
		subscriptions: make(map[string]func()),
		send:          make(chan []byte, sendBufSize),
		done:          make(chan struct{}),
	}
}

// ReadPump reads events from the WebSocket until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.cancelAll()
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.log.Debug().Str("uid", c.uid).Msg("client disconnected")
			} else {
				c.log.Warn().Err(err).Str("uid", c.uid).Msg("read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Warn().Err(err).Str("uid", c.uid).Msg("write error")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeViewSubscribe:
		var p ViewPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.Collection == "" {
			c.sendError("INVALID_PAYLOAD", "invalid view.subscribe payload")
			return
		}
		c.subscribeView(p)

	case EventTypeViewUnsubscribe:
		var p ViewPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.Collection == "" {
			c.sendError("INVALID_PAYLOAD", "invalid view.unsubscribe payload")
			return
		}
		c.cancelKey("view:" + p.Collection)

	case EventTypeChatSubscribe:
		var p ChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.PeerID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid chat.subscribe payload")
			return
		}
		c.subscribeChat(p.PeerID)

	case EventTypeChatUnsubscribe:
		var p ChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.PeerID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid chat.unsubscribe payload")
			return
		}
		c.cancelKey("chat:" + p.PeerID)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) subscribeView(p ViewPayload) {
	var cancel func()
	if p.Pending {
		cancel = c.hub.subscriber.SubscribePending(p.Collection, "status", "createdAt",
			func(records []docstore.Record, err error) {
				c.pushViewSnapshot(p.Collection, records, err)
			})
	} else {
		opts := live.Options{OrderBy: p.OrderBy, Desc: p.Desc}
		if p.Field != "" {
			opts.Where = []docstore.Filter{{Field: p.Field, Value: p.Equals}}
		}
		cancel = c.hub.subscriber.Subscribe(p.Collection, opts,
			func(records []docstore.Record, err error) {
				c.pushViewSnapshot(p.Collection, records, err)
			})
	}
	c.track("view:"+p.Collection, cancel)
}

func (c *Client) subscribeChat(peerID string) {
	cancel := c.hub.chatStore.Listen(c.uid, peerID, func(messages []chat.Message, err error) {
		payload := ChatSnapshotPayload{PeerID: peerID, Messages: messages}
		if err != nil {
			payload.Error = err.Error()
		}
		c.push(EventTypeChatSnapshot, payload)
	})
	c.track("chat:"+peerID, cancel)
}

func (c *Client) pushViewSnapshot(collection string, records []docstore.Record, err error) {
	payload := ViewSnapshotPayload{Collection: collection, Records: records}
	if err != nil {
		payload.Error = err.Error()
	}
	c.push(EventTypeViewSnapshot, payload)
}

func (c *Client) push(eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// enqueue drops the event when the buffer is full or the client is closed.
// The send must happen under mu so it cannot race closeSend.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// closeSend releases both pumps. Idempotent; late snapshots from
// still-cancelling subscriptions are dropped by enqueue from here on.
func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
		close(c.done)
	}
	c.mu.Unlock()
}

func (c *Client) track(key string, cancel func()) {
	c.mu.Lock()
	if prev, ok := c.subscriptions[key]; ok {
		prev()
	}
	c.subscriptions[key] = cancel
	c.mu.Unlock()
}

func (c *Client) cancelKey(key string) {
	c.mu.Lock()
	if cancel, ok := c.subscriptions[key]; ok {
		cancel()
		delete(c.subscriptions, key)
	}
	c.mu.Unlock()
}

func (c *Client) cancelAll() {
	c.mu.Lock()
	for key, cancel := range c.subscriptions {
		cancel()
		delete(c.subscriptions, key)
	}
	c.mu.Unlock()
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	c.enqueue(data)
}

func (c *Client) sendError(code, message string) {
	c.push(EventTypeError, ErrorPayload{Code: code, Message: message})
}
