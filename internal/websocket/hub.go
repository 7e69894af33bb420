// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package websocket broadcasts scored events to connected browser
// clients. The hub runs as a supervised service; handlers register
// clients through ServeWS.
package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/stream"
)

// Message types for WebSocket communication.
const (
	MessageTypeScore = "score"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is the envelope sent to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to
// them. A full or wedged client is dropped rather than allowed to slow
// the broadcast path.
type Hub struct {
	logger     zerolog.Logger
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. Run it under the supervisor before serving
// upgrades.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:     logger.With().Str("component", "websocket").Logger(),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Serve runs the hub loop until the context is canceled. Lifecycle
// events take priority over broadcasts so client state is consistent
// before messages are delivered.
func (h *Hub) Serve(ctx context.Context) error {
	h.logger.Info().Msg("WebSocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.register:
			h.addClient(client)
			continue
		case client := <-h.unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Int("total_clients", total).Msg("WebSocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Int("total_clients", total).Msg("WebSocket client disconnected")
}

// broadcastToClients delivers a message to every client in ID order.
// Clients whose send buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		if !client.trySend(message) {
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		client.closeSend()
		delete(h.clients, client)
		h.logger.Warn().Uint64("client_id", client.id).Msg("Dropped slow WebSocket client")
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
	h.mu.Unlock()

	h.logger.Info().Int("clients_closed", count).Msg("WebSocket hub stopped")
}

// BroadcastEvent queues a scored event for delivery to all clients. It
// never blocks; when the broadcast buffer is full the event is dropped.
func (h *Hub) BroadcastEvent(ev stream.Event) {
	message := Message{
		Type: MessageTypeScore,
		Data: ev,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Debug().Uint64("offset", ev.Offset).Msg("Broadcast buffer full, event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API layer already enforces CORS; the live feed is read-only.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and attaches the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := newClient(h, conn)
	h.register <- client
	client.start()
}
