package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/padelops/tournament-engine/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the router; the upgrade accepts any
		// origin that got this far.
		return true
	},
}

type WebSocketHandler struct {
	hub *stream.Hub
}

func NewWebSocketHandler(hub *stream.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Subscribe upgrades the connection and joins the tournament's event room.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	h.hub.NewClient(conn, stream.TournamentRoom(tournamentID))
}
