package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// The API binds to loopback; cross-origin checks add nothing here.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamHandler upgrades to a websocket and relays dispatched events to the
// client as JSON messages until it disconnects.
func streamHandler(broadcaster *status.Broadcaster, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("STREAM: upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		events, cancel := broadcaster.Subscribe()
		defer cancel()

		logger.Printf("STREAM: client connected from %s", r.RemoteAddr)

		// Drain the client side so close frames are processed.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(event); err != nil {
					logger.Printf("STREAM: write failed: %v", err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				logger.Printf("STREAM: client %s disconnected", r.RemoteAddr)
				return
			}
		}
	}
}
