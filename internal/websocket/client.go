// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package websocket

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB

	// Inbound frames per second and burst allowed per connection. Clients
	// only send joins, so anything faster is a misbehaving tab.
	inboundRate  = 5
	inboundBurst = 20
)

// clientIDCounter gives clients a stable order for broadcasts.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	inbound *rate.Limiter

	// rooms and closed are guarded by hub.mu.
	rooms  map[string]struct{}
	closed bool
}

// NewClient creates a new Client with a unique ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, hub.sendBuffer),

		inbound: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

// readPump reads client messages until the connection fails, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		if !c.inbound.Allow() {
			metrics.WSInboundDropped.Inc()
			logging.Debug().Uint64("client_id", c.id).Msg("dropping websocket message over inbound rate")
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("ignoring malformed websocket message")
			continue
		}
		c.handle(msg)
	}
}

// handle dispatches one client message by type.
func (c *Client) handle(msg inboundMessage) {
	switch msg.Type {
	case MessageTypePing:
		c.hub.send(c, Message{Type: MessageTypePong})

	case MessageTypeJoinUserRoom:
		userID, err := parseJoinRequest(msg.Data)
		if err != nil {
			logging.Warn().Err(err).Uint64("client_id", c.id).Msg("rejecting join_user_room")
			return
		}
		if !c.hub.Join(c, userID) {
			return
		}
		c.hub.send(c, Message{
			Type: MessageTypeConnectionConfirmed,
			Data: ConnectionConfirmed{
				Message:   fmt.Sprintf("Connected to notifications for user %s", userID),
				UserID:    userID,
				Timestamp: time.Now().UTC(),
			},
		})

	default:
		logging.Debug().Str("message_type", msg.Type).Uint64("client_id", c.id).Msg("ignoring unknown websocket message type")
	}
}

// parseJoinRequest extracts the user id from {"userId": ...}. Numeric ids are
// accepted and rendered in decimal.
func parseJoinRequest(data json.RawMessage) (string, error) {
	var req struct {
		UserID json.RawMessage `json:"userId"`
	}
	if len(data) == 0 {
		return "", fmt.Errorf("missing data")
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return "", fmt.Errorf("decode join request: %w", err)
	}
	if len(req.UserID) == 0 {
		return "", fmt.Errorf("missing userId")
	}

	var userID string
	if err := json.Unmarshal(req.UserID, &userID); err != nil {
		var n json.Number
		if err := json.Unmarshal(req.UserID, &n); err != nil {
			return "", fmt.Errorf("userId must be a string or number")
		}
		userID = n.String()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" || strings.ContainsAny(userID, ": ") {
		return "", fmt.Errorf("invalid userId %q", userID)
	}
	return userID, nil
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
