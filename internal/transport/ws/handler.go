package ws

import (
	"net/http"

	"nhooyr.io/websocket"

	"github.com/gsoffice/servicedesk/internal/service"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		uid, err := auth.VerifyToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			hub.log.Warn().Err(err).Msg("websocket accept failed")
			return
		}

		client := NewClient(hub, conn, uid, hub.log)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
