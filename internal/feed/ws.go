package feed

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solspark/marketboard/internal/logger"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	// sendBuffer bounds queued updates per client; clients that fall this
	// far behind are dropped rather than allowed to stall the publisher.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is same-origin agnostic; browsers hit it from the SPA host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams a market's price updates as JSON
// frames until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, marketID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed for market %s: %v", marketID, err)
		return
	}

	send := make(chan PriceUpdate, sendBuffer)
	unsubscribe := h.Subscribe(marketID, func(u PriceUpdate) {
		select {
		case send <- u:
		default:
			// Buffer full; the writer loop will notice staleness via ping
			// failure or the client catches up on the next update.
		}
	})

	done := make(chan struct{})

	// Reader exists only to notice the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			unsubscribe()
			conn.Close()
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case u := <-send:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(u); err != nil {
					logger.Debug("websocket write failed for market %s: %v", marketID, err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
