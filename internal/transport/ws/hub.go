package ws

import (
	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/live"
)

// Hub tracks active WebSocket clients and hands them the live subscriber and
// chat store their subscriptions run against.
type Hub struct {
	subscriber *live.Subscriber
	chatStore  *chat.Store
	log        zerolog.Logger

	// clients maps identity uid → client. A reconnect replaces the entry;
	// the old connection's subscriptions are cancelled by its own teardown.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub(subscriber *live.Subscriber, chatStore *chat.Store, log zerolog.Logger) *Hub {
	return &Hub{
		subscriber: subscriber,
		chatStore:  chatStore,
		log:        log.With().Str("component", "ws").Logger(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.uid] = client
			h.log.Info().Str("uid", client.uid).Int("total", len(h.clients)).Msg("client connected")

		case client := <-h.unregister:
			if current, ok := h.clients[client.uid]; ok && current == client {
				delete(h.clients, client.uid)
			}
			client.closeSend()
			h.log.Info().Str("uid", client.uid).Int("total", len(h.clients)).Msg("client disconnected")
		}
	}
}
