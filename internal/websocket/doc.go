// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package websocket delivers realtime notifications to connected browsers.

It uses gorilla/websocket with a hub-and-client architecture extended with
per-user rooms:

  - Hub: tracks clients and room membership, emits to a room or to everyone
  - Client: one connection with a readPump and a writePump goroutine
  - Gateway: maps pub/sub fanout channels onto hub emits

Each client has two goroutines:
  - readPump: reads client messages, answers ping and join_user_room
  - writePump: writes queued messages and keepalive pings

# Protocol

Every frame is a JSON object {"type": ..., "data": ...}.

Client to server:

  - join_user_room {"userId": "42"}: joins room user_42. Joining twice is a
    no-op. The server replies connection_confirmed
    {"message", "userId", "timestamp"}.
  - ping: the server replies pong.

Server to client:

  - new_notification: a notification for a user room, sourced from
    user:{id}:notifications
  - family_notification: sent to every client, sourced from
    family:{id}:notifications

Delivery is best-effort. An emit to a room with no clients is dropped and
counted; a client whose send queue is full is disconnected.

# Usage

	hub := websocket.NewHub(cfg.Realtime.SendBuffer)
	gw := websocket.NewGateway(hub)
	if err := gw.Attach(router); err != nil {
	    return err
	}
	// supervised: hub.RunWithContext(ctx)

Disconnecting removes the client from every room it joined.
*/
package websocket
