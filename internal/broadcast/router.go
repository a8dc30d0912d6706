// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package broadcast

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/metrics"
	"github.com/tomtom215/hearth/internal/store"
)

// Message is one pub/sub delivery. Pattern is set for pattern subscriptions.
type Message struct {
	Channel string
	Pattern string
	Payload []byte
}

// Handler processes a message. Errors are logged; they never end the subscription.
type Handler func(ctx context.Context, msg Message) error

// Router publishes on the publisher role and routes messages received on the
// subscriber role to registered handlers. Handlers run one message at a time
// on the Serve goroutine, so a slow handler delays every later message on
// every channel and pattern. Handlers doing more than a hub broadcast should
// hand the work to their own goroutines, as Dispatcher.Attach does.
type Router struct {
	pub *store.Publisher
	sub *store.Subscriber

	mu       sync.RWMutex
	channels map[string][]Handler
	patterns map[string][]Handler

	// live is the active pubsub connection while Serve runs.
	live    *redis.PubSub
	liveCtx context.Context

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRouter creates a router over the publisher and subscriber roles.
func NewRouter(pub *store.Publisher, sub *store.Subscriber) *Router {
	return &Router{
		pub:      pub,
		sub:      sub,
		channels: make(map[string][]Handler),
		patterns: make(map[string][]Handler),
		ready:    make(chan struct{}),
	}
}

// Publish sends payload as JSON on channel. []byte payloads are sent as-is.
func (r *Router) Publish(ctx context.Context, channel string, payload interface{}) error {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload for %s: %w", channel, err)
		}
		data = encoded
	}

	_, err := r.pub.Publish(ctx, channel, data)
	metrics.RecordPublish(channelKind(channel), err)
	return err
}

// Subscribe registers h for an exact channel. Registrations made while Serve
// runs are applied to the live connection.
func (r *Router) Subscribe(channel string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	first := len(r.channels[channel]) == 0
	r.channels[channel] = append(r.channels[channel], h)
	if first && r.live != nil {
		return store.Unavailable("subscribe "+channel, r.live.Subscribe(r.liveCtx, channel))
	}
	return nil
}

// SubscribePattern registers h for a glob pattern such as user:*:notifications.
func (r *Router) SubscribePattern(pattern string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	first := len(r.patterns[pattern]) == 0
	r.patterns[pattern] = append(r.patterns[pattern], h)
	if first && r.live != nil {
		return store.Unavailable("psubscribe "+pattern, r.live.PSubscribe(r.liveCtx, pattern))
	}
	return nil
}

// Ready is closed once Serve has confirmed the subscriptions registered before it started.
func (r *Router) Ready() <-chan struct{} {
	return r.ready
}

// Serve implements suture.Service. It owns the subscriber connection and
// returns ctx.Err() on shutdown.
func (r *Router) Serve(ctx context.Context) error {
	ps := r.sub.Subscribe(ctx)
	defer func() {
		r.mu.Lock()
		r.live = nil
		r.liveCtx = nil
		r.mu.Unlock()
		if err := ps.Close(); err != nil {
			logging.Debug().Err(err).Msg("Closing pubsub connection")
		}
	}()

	r.mu.Lock()
	channels := keys(r.channels)
	patterns := keys(r.patterns)
	r.live = ps
	r.liveCtx = ctx
	r.mu.Unlock()

	if len(channels) > 0 {
		if err := ps.Subscribe(ctx, channels...); err != nil {
			return store.Unavailable("subscribe", err)
		}
	}
	if len(patterns) > 0 {
		if err := ps.PSubscribe(ctx, patterns...); err != nil {
			return store.Unavailable("psubscribe", err)
		}
	}

	// Wait for one confirmation per subscription before handing off to Channel().
	for confirmed := 0; confirmed < len(channels)+len(patterns); {
		reply, err := ps.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return store.Unavailable("subscription confirmation", err)
		}
		switch m := reply.(type) {
		case *redis.Subscription:
			confirmed++
		case *redis.Message:
			r.route(ctx, Message{Channel: m.Channel, Pattern: m.Pattern, Payload: []byte(m.Payload)})
		}
	}
	r.readyOnce.Do(func() { close(r.ready) })

	logging.Info().
		Strs("channels", channels).
		Strs("patterns", patterns).
		Msg("Broadcast router subscribed")

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return fmt.Errorf("pubsub channel closed: %w", store.ErrUnavailable)
			}
			r.route(ctx, Message{Channel: m.Channel, Pattern: m.Pattern, Payload: []byte(m.Payload)})
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (r *Router) String() string {
	return "broadcast-router"
}

// route delivers msg to every handler registered for its channel or pattern.
func (r *Router) route(ctx context.Context, msg Message) {
	route := msg.Channel
	r.mu.RLock()
	var handlers []Handler
	if msg.Pattern != "" {
		route = msg.Pattern
		handlers = append(handlers, r.patterns[msg.Pattern]...)
	} else {
		handlers = append(handlers, r.channels[msg.Channel]...)
	}
	r.mu.RUnlock()

	if len(handlers) == 0 {
		metrics.RecordReceive(route, "unrouted")
		return
	}
	for _, h := range handlers {
		metrics.RecordReceive(route, r.invoke(ctx, h, msg))
	}
}

// invoke runs one handler, containing errors and panics.
func (r *Router) invoke(ctx context.Context, h Handler, msg Message) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Str("channel", msg.Channel).
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("Pub/sub handler panicked")
			result = "panic"
		}
	}()

	if err := h(ctx, msg); err != nil {
		logging.Warn().Err(err).Str("channel", msg.Channel).Str("pattern", msg.Pattern).Msg("Pub/sub handler failed")
		return "error"
	}
	return "ok"
}

func keys(m map[string][]Handler) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// channelKind gives a low-cardinality label for a channel.
func channelKind(channel string) string {
	switch {
	case channel == NewNotificationChannel:
		return "new"
	case strings.HasPrefix(channel, userPrefix):
		return "user"
	case strings.HasPrefix(channel, familyPrefix):
		return "family"
	}
	return "other"
}
