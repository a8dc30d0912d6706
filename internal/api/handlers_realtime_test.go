// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	ws "github.com/tomtom215/hearth/internal/websocket"
)

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startWSServer(t *testing.T, e *testEnv) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.hub.RunWithContext(ctx) }()

	server := httptest.NewServer(e.handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readWSFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f wsFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode frame %q: %v", raw, err)
	}
	return f
}

func TestWebSocket_JoinAndReceive(t *testing.T) {
	e := newTestEnv(t, nil)
	server := startWSServer(t, e)

	conn, _, err := dial(t, server, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	join := `{"type":"join_user_room","data":{"userId":"42"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(join)); err != nil {
		t.Fatalf("write join: %v", err)
	}
	if f := readWSFrame(t, conn); f.Type != ws.MessageTypeConnectionConfirmed {
		t.Fatalf("first frame = %q, want connection_confirmed", f.Type)
	}

	if n := e.hub.EmitToUser("42", ws.MessageTypeNewNotification, map[string]string{"id": "n1"}); n != 1 {
		t.Fatalf("EmitToUser() delivered to %d clients, want 1", n)
	}
	f := readWSFrame(t, conn)
	if f.Type != ws.MessageTypeNewNotification || !strings.Contains(string(f.Data), `"n1"`) {
		t.Errorf("frame = %s %s", f.Type, f.Data)
	}
}

func TestWebSocket_OriginCheck(t *testing.T) {
	e := newTestEnv(t, nil)
	e.cfg.Realtime.AllowedOrigins = []string{"https://home.example"}
	server := startWSServer(t, e)

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{name: "allowed", origin: "https://home.example", ok: true},
		{name: "foreign", origin: "https://evil.example"},
		{name: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := dial(t, server, header)
			if tt.ok {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("dial succeeded for rejected origin")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	e := newTestEnv(t, nil)
	handler := NewRouter(Deps{Config: e.cfg}, nil).SetupChi()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// A submission reaches a joined socket through the pub/sub fast path.
func TestSubmitToSocket_EndToEnd(t *testing.T) {
	e := newTestEnv(t, nil)
	if err := e.d.Attach(e.router); err != nil {
		t.Fatalf("attach dispatcher: %v", err)
	}
	if err := ws.NewGateway(e.hub).Attach(e.router); err != nil {
		t.Fatalf("attach gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = e.router.Serve(ctx) }()
	select {
	case <-e.router.Ready():
	case <-time.After(3 * time.Second):
		t.Fatal("router never became ready")
	}

	server := startWSServer(t, e)
	conn, _, err := dial(t, server, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_user_room","data":{"userId":"42"}}`)); err != nil {
		t.Fatalf("write join: %v", err)
	}
	readWSFrame(t, conn)

	rec := e.do(t, http.MethodPost, "/notify/queue", validSubmission)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	// One frame for the user room, one family broadcast; order across channels is not fixed.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[readWSFrame(t, conn).Type] = true
	}
	if !seen[ws.MessageTypeNewNotification] || !seen[ws.MessageTypeFamilyNotification] {
		t.Errorf("frames = %v, want new_notification and family_notification", seen)
	}
}
