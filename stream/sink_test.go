package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialRoom spins up a hub with one subscribed client and returns the client
// side of the connection.
func dialRoom(t *testing.T, hub *Hub, room string) *websocket.Conn {
	t.Helper()

	ready := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.NewClient(conn, room)
		close(ready)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	<-ready
	// Registration finishes inside the hub's run loop just after NewClient
	// returns; give it a beat before publishing.
	time.Sleep(20 * time.Millisecond)
	return conn
}

func readEvents(t *testing.T, conn *websocket.Conn, n int) []Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	events := make([]Event, 0, n)
	for len(events) < n {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		events = append(events, ev)
	}
	return events
}

func TestRoomSinkEventShapes(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := TournamentRoom(3)
	conn := dialRoom(t, hub, room)

	sink := NewRoomSink(hub, room)
	sink.Log("forming groups")
	sink.Progress(40, "final standings persisted")
	sink.Success("groups closed", map[string]int{"matches": 7})

	events := readEvents(t, conn, 3)

	assert.Equal(t, "log", events[0].Type)
	assert.Equal(t, "forming groups", events[0].Message)
	assert.Equal(t, room, events[0].Room)

	assert.Equal(t, "progress", events[1].Type)
	assert.Equal(t, 40, events[1].Percent)
	assert.Equal(t, "final standings persisted", events[1].Status)
	assert.Empty(t, events[1].Message)

	assert.Equal(t, "success", events[2].Type)
	assert.Equal(t, "completed", events[2].Status)
	assert.Equal(t, "groups closed", events[2].Message)
	assert.NotNil(t, events[2].Payload)
}

func TestRoomSinkErrorEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := TournamentRoom(9)
	conn := dialRoom(t, hub, room)

	sink := NewRoomSink(hub, room)
	sink.Error("groups already exist for this tournament")

	events := readEvents(t, conn, 1)
	assert.Equal(t, "error", events[0].Type)
	assert.Equal(t, "failed", events[0].Status)
	assert.Equal(t, "groups already exist for this tournament", events[0].Message)
}

func TestPublishDoesNotBlockWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		hub.Publish(TournamentRoom(1), Event{Type: "log", Message: "nobody listening"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
