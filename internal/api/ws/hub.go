// Package ws pushes queue snapshots to connected browsers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lineup/queue-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
	broadcastQueue = 256
)

type message struct {
	businessID string
	payload    []byte
}

// Hub keeps the connected clients grouped by business. Run owns the client
// map, every other goroutine talks to it through channels.
type Hub struct {
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan message
	done       chan struct{}
	logger     *log.Logger
	upgrader   websocket.Upgrader
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan message, broadcastQueue),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]struct{})
			return

		case c := <-h.register:
			if h.clients[c.businessID] == nil {
				h.clients[c.businessID] = make(map[*client]struct{})
			}
			h.clients[c.businessID][c] = struct{}{}

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			for c := range h.clients[m.businessID] {
				select {
				case c.send <- m.payload:
				default:
					// slow reader, it reconnects and gets a fresh snapshot
					h.remove(c)
				}
			}
		}
	}
}

// Broadcast queues a snapshot for every client watching the business. It
// never blocks: when the hub is saturated the snapshot is skipped, the next
// one supersedes it anyway.
func (h *Hub) Broadcast(businessID string, snapshot domain.QueueSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Errorf("ws: failed to marshal snapshot: %v", err)
		return
	}

	select {
	case h.broadcast <- message{businessID: businessID, payload: payload}:
	default:
		h.logger.Warnf("ws: broadcast queue full, snapshot for %s skipped", businessID)
	}
}

// Serve upgrades the request and streams snapshots for businessID, starting
// with initial.
func (h *Hub) Serve(c *gin.Context, businessID string, initial domain.QueueSnapshot) {
	payload, err := json.Marshal(initial)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithContext(c).Warnf("ws: upgrade failed: %v", err)
		return
	}

	cl := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		businessID: businessID,
	}
	cl.send <- payload

	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go cl.writePump()
	cl.readPump()
}

func (h *Hub) remove(c *client) {
	clients, ok := h.clients[c.businessID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}

	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.businessID)
	}
}
