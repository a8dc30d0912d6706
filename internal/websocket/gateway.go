// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package websocket

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/logging"
)

// Emitter is the part of the hub the gateway fans out to.
type Emitter interface {
	EmitToUser(userID, messageType string, data interface{}) int
	BroadcastAll(messageType string, data interface{})
}

// PatternSubscriber registers pattern handlers, satisfied by *broadcast.Router.
type PatternSubscriber interface {
	SubscribePattern(pattern string, h broadcast.Handler) error
}

// Gateway maps per-user and per-family pub/sub fanout onto WebSocket clients.
type Gateway struct {
	hub Emitter
}

// NewGateway creates a gateway emitting through hub.
func NewGateway(hub Emitter) *Gateway {
	return &Gateway{hub: hub}
}

// Attach subscribes the gateway to the user and family fanout patterns.
func (g *Gateway) Attach(sub PatternSubscriber) error {
	if err := sub.SubscribePattern(broadcast.UserPattern, g.HandleUser); err != nil {
		return fmt.Errorf("subscribe %s: %w", broadcast.UserPattern, err)
	}
	if err := sub.SubscribePattern(broadcast.FamilyPattern, g.HandleFamily); err != nil {
		return fmt.Errorf("subscribe %s: %w", broadcast.FamilyPattern, err)
	}
	return nil
}

// HandleUser emits new_notification to the room of the user named in the channel.
func (g *Gateway) HandleUser(_ context.Context, msg broadcast.Message) error {
	userID, ok := broadcast.UserIDFromChannel(msg.Channel)
	if !ok {
		return fmt.Errorf("no user id in channel %q", msg.Channel)
	}
	if !json.Valid(msg.Payload) {
		return fmt.Errorf("payload on %s is not JSON", msg.Channel)
	}

	delivered := g.hub.EmitToUser(userID, MessageTypeNewNotification, json.RawMessage(msg.Payload))
	logging.Debug().Str("user_id", userID).Int("delivered", delivered).Msg("emitted new_notification")
	return nil
}

// HandleFamily emits family_notification to every connected client.
func (g *Gateway) HandleFamily(_ context.Context, msg broadcast.Message) error {
	familyID, ok := broadcast.FamilyIDFromChannel(msg.Channel)
	if !ok {
		return fmt.Errorf("no family id in channel %q", msg.Channel)
	}
	if !json.Valid(msg.Payload) {
		return fmt.Errorf("payload on %s is not JSON", msg.Channel)
	}

	g.hub.BroadcastAll(MessageTypeFamilyNotification, json.RawMessage(msg.Payload))
	logging.Debug().Str("family_id", familyID).Msg("broadcast family_notification")
	return nil
}
