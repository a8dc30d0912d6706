// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
	MessageTypeJoinUserRoom        = "join_user_room"
	MessageTypeConnectionConfirmed = "connection_confirmed"
	MessageTypeNewNotification     = "new_notification"
	MessageTypeFamilyNotification  = "family_notification"
)

// DefaultSendBuffer is the per-client outbound queue size.
const DefaultSendBuffer = 256

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inboundMessage keeps data raw until the message type is known.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ConnectionConfirmed is the reply to join_user_room.
type ConnectionConfirmed struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomName returns the room a user's connections join.
func RoomName(userID string) string {
	return "user_" + userID
}

// Hub maintains the set of active clients and their room memberships.
// Client lifecycle and room emits happen under mu; broadcasts to every
// client are serialized through the run loop.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]struct{}
	broadcast  chan Message
	sendBuffer int
	mu         sync.RWMutex
}

// NewHub creates a new Hub. sendBuffer <= 0 uses DefaultSendBuffer.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]struct{}),
		broadcast:  make(chan Message, sendBuffer),
		sendBuffer: sendBuffer,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

// Unregister removes a client from the hub and from every room it joined.
// Calling it more than once is safe.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	registered := h.clients[client]
	h.removeLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	if registered {
		metrics.WSConnections.Dec()
		logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// removeLocked drops client from clients and rooms and closes its send queue.
// Callers must hold mu.
func (h *Hub) removeLocked(client *Client) {
	for room := range client.rooms {
		members := h.rooms[room]
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.rooms = nil
	delete(h.clients, client)
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

// Join adds client to the room of userID. Joining the same room twice is a
// no-op. It reports false when the client is already closed.
func (h *Hub) Join(client *Client, userID string) bool {
	room := RoomName(userID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}
	if _, ok := client.rooms[room]; ok {
		return true
	}
	if client.rooms == nil {
		client.rooms = make(map[string]struct{})
	}
	client.rooms[room] = struct{}{}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}

	metrics.WSRoomJoins.Inc()
	logging.Debug().Uint64("client_id", client.id).Str("room", room).Int("members", len(members)).Msg("websocket client joined room")
	return true
}

// EmitToUser sends a message to every client in the user's room and returns
// the number of clients it was queued for. Nothing is buffered for an empty room.
func (h *Hub) EmitToUser(userID, messageType string, data interface{}) int {
	room := RoomName(userID)
	message := Message{Type: messageType, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if len(members) == 0 {
		metrics.WSEmitsDropped.WithLabelValues("empty_room").Inc()
		logging.Debug().Str("room", room).Str("message_type", messageType).Msg("no clients in room, dropping message")
		return 0
	}

	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	return h.deliverLocked(clients, message)
}

// BroadcastAll queues a message for every connected client.
func (h *Hub) BroadcastAll(messageType string, data interface{}) {
	message := Message{Type: messageType, Data: data}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSEmitsDropped.WithLabelValues("hub_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// send queues a direct reply to one client. It reports false if the client
// is closed or its queue is full.
func (h *Hub) send(client *Client, message Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client.closed {
		return false
	}
	select {
	case client.send <- message:
		metrics.WSMessagesSent.WithLabelValues(message.Type).Inc()
		return true
	default:
		metrics.WSEmitsDropped.WithLabelValues("slow_client").Inc()
		return false
	}
}

// RunWithContext runs the broadcast loop until ctx is canceled, then closes
// every connected client and returns ctx.Err().
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown takes priority over pending broadcasts.
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error since cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in client id order.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		metrics.WSEmitsDropped.WithLabelValues("no_clients").Inc()
		return
	}

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.deliverLocked(clients, message)
}

// deliverLocked queues message for each client, dropping clients whose queue
// is full. Callers must hold mu.
func (h *Hub) deliverLocked(clients []*Client, message Message) int {
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	delivered := 0
	var toRemove []*Client
	for _, client := range clients {
		if client.closed {
			continue
		}
		select {
		case client.send <- message:
			delivered++
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		metrics.WSEmitsDropped.WithLabelValues("slow_client").Inc()
		if h.clients[client] {
			metrics.WSConnections.Dec()
		}
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnecting")
		h.removeLocked(client)
	}

	if delivered > 0 {
		metrics.WSMessagesSent.WithLabelValues(message.Type).Add(float64(delivered))
	}
	return delivered
}

// closeAllClients closes every connected client in client id order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		h.removeLocked(client)
		metrics.WSConnections.Dec()
	}
	// Clients that joined a room but were never registered.
	for room, members := range h.rooms {
		for client := range members {
			h.removeLocked(client)
		}
		delete(h.rooms, room)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in the user's room.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(userID)])
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
