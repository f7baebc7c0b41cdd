// Package livereload pushes reload notifications to browser pages over a
// WebSocket.
package livereload

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coiserve/src/internal/domain"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // matches Access-Control-Allow-Origin: *
	},
}

// Script is served to pages that want to reload when files change.
const Script = `(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + "` + domain.LiveReloadPath + `");
  ws.onmessage = function (ev) {
    if (ev.data === "` + domain.ReloadMessage + `") {
      location.reload();
    }
  };
})();
`

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Anything the client sends is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, domain.NewIsolationHeader())
	if err != nil {
		log.Print("upgrade:", err)
		return
	}

	if !h.add(c) {
		c.Close()
		return
	}
	defer h.remove(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast tells every connected page to reload. Clients that cannot be
// written to are dropped.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, []byte(domain.ReloadMessage)); err != nil {
			log.Printf("Dropping live-reload client %s: %v", c.RemoteAddr(), err)
			delete(h.clients, c)
			c.Close()
		}
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) add(c *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
	}
}
