package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestRoom(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial room %s: %v", room, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcastsWithinRoomOnly(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		room := strings.TrimPrefix(r.URL.Path, "/")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Join(room, conn)
	}))
	defer srv.Close()

	inRoom := dialTestRoom(t, srv, "kelas-1")
	other := dialTestRoom(t, srv, "kelas-2")

	waitForRoomSize(t, hub, "kelas-1", 1)
	waitForRoomSize(t, hub, "kelas-2", 1)

	hub.Broadcast("kelas-1", []byte(`{"message":"halo"}`))

	_ = inRoom.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := inRoom.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if string(payload) != `{"message":"halo"}` {
		t.Fatalf("payload = %s", payload)
	}

	_ = other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatalf("other room must not receive the broadcast")
	}
}

func TestHubLeaveShrinksRoom(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Join("ruang", conn)
	}))
	defer srv.Close()

	conn := dialTestRoom(t, srv, "ruang")
	waitForRoomSize(t, hub, "ruang", 1)

	hub.mu.RLock()
	var serverConn *websocket.Conn
	for c := range hub.rooms["ruang"] {
		serverConn = c
	}
	hub.mu.RUnlock()

	hub.Leave("ruang", serverConn)
	if hub.RoomSize("ruang") != 0 {
		t.Fatalf("expected empty room, got %d", hub.RoomSize("ruang"))
	}
	_ = conn.Close()
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(room) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached size %d", room, want)
}
