package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelops/tournament-engine/engine"
	"github.com/padelops/tournament-engine/middleware"
	"github.com/padelops/tournament-engine/services"
	"github.com/padelops/tournament-engine/stream"
)

// stubTournamentService embeds the interface so only the operation under
// test needs an implementation.
type stubTournamentService struct {
	services.TournamentService
	closeRegistration func(sink engine.ProgressSink) (*services.CloseRegistrationResult, error)
}

func (s *stubTournamentService) CloseRegistration(ctx context.Context, ownerID, tournamentID int, teamIDs []int, cfg *services.ScheduleConfig, sink engine.ProgressSink) (*services.CloseRegistrationResult, error) {
	return s.closeRegistration(sink)
}

// subscribe joins a hub room over a real websocket connection and returns
// the client side.
func subscribe(t *testing.T, hub *stream.Hub, room string) *websocket.Conn {
	t.Helper()

	ready := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.NewClient(conn, room)
		close(ready)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	<-ready
	time.Sleep(20 * time.Millisecond)
	return conn
}

func readStream(t *testing.T, conn *websocket.Conn, n int) []stream.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	events := make([]stream.Event, 0, n)
	for len(events) < n {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev stream.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		events = append(events, ev)
	}
	return events
}

func closeRegistrationRequest(t *testing.T, tournamentID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost,
		"/tournaments/"+tournamentID+"/close-registration?stream=1",
		strings.NewReader(`{"team_ids": [1, 2, 3, 4]}`))
	req = req.WithContext(middleware.ContextWithOwner(req.Context(), 1))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("tournamentID", tournamentID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCloseRegistrationStreamEndsWithSuccess(t *testing.T) {
	hub := stream.NewHub()
	go hub.Run()
	conn := subscribe(t, hub, stream.TournamentRoom(7))

	svc := &stubTournamentService{closeRegistration: func(sink engine.ProgressSink) (*services.CloseRegistrationResult, error) {
		sink.Log("forming groups")
		sink.Progress(60, "groups and fixtures created")
		return &services.CloseRegistrationResult{}, nil
	}}
	h := NewTournamentHandler(svc, hub)

	rec := httptest.NewRecorder()
	h.CloseRegistration(rec, closeRegistrationRequest(t, "7"))
	require.Equal(t, http.StatusCreated, rec.Code)

	events := readStream(t, conn, 3)
	assert.Equal(t, "log", events[0].Type)
	assert.Equal(t, "progress", events[1].Type)
	assert.Equal(t, 60, events[1].Percent)
	assert.Equal(t, "groups and fixtures created", events[1].Status)
	assert.Equal(t, "success", events[2].Type)
	assert.Equal(t, "completed", events[2].Status)
}

func TestCloseRegistrationStreamEndsWithError(t *testing.T) {
	hub := stream.NewHub()
	go hub.Run()
	conn := subscribe(t, hub, stream.TournamentRoom(7))

	svc := &stubTournamentService{closeRegistration: func(sink engine.ProgressSink) (*services.CloseRegistrationResult, error) {
		sink.Progress(10, "validating teams")
		return nil, services.ErrGroupsAlreadyExist
	}}
	h := NewTournamentHandler(svc, hub)

	rec := httptest.NewRecorder()
	h.CloseRegistration(rec, closeRegistrationRequest(t, "7"))
	require.Equal(t, http.StatusConflict, rec.Code)

	events := readStream(t, conn, 2)
	assert.Equal(t, "progress", events[0].Type)
	assert.Equal(t, "error", events[1].Type)
	assert.Equal(t, "failed", events[1].Status)
	assert.Equal(t, services.ErrGroupsAlreadyExist.Error(), events[1].Message)
}

func TestCloseRegistrationWithoutStreamStaysSilent(t *testing.T) {
	hub := stream.NewHub()
	go hub.Run()
	conn := subscribe(t, hub, stream.TournamentRoom(7))

	svc := &stubTournamentService{closeRegistration: func(sink engine.ProgressSink) (*services.CloseRegistrationResult, error) {
		sink.Progress(60, "groups and fixtures created")
		return &services.CloseRegistrationResult{}, nil
	}}
	h := NewTournamentHandler(svc, hub)

	req := closeRegistrationRequest(t, "7")
	req.URL.RawQuery = ""
	rec := httptest.NewRecorder()
	h.CloseRegistration(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "no events should reach the room without ?stream=1")
}
