package stream

import "fmt"

// TournamentRoom names the room every event for a tournament flows through.
func TournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

// RoomSink forwards progress callbacks from a long-running operation into a
// hub room. It satisfies the engine's progress sink interface.
type RoomSink struct {
	hub  *Hub
	room string
}

func NewRoomSink(hub *Hub, room string) *RoomSink {
	return &RoomSink{hub: hub, room: room}
}

func (s *RoomSink) Log(message string) {
	s.hub.Publish(s.room, Event{Type: "log", Message: message})
}

func (s *RoomSink) Progress(percent int, status string) {
	s.hub.Publish(s.room, Event{Type: "progress", Percent: percent, Status: status})
}

// Success terminates the event stream for one operation.
func (s *RoomSink) Success(message string, payload interface{}) {
	s.hub.Publish(s.room, Event{Type: "success", Status: "completed", Message: message, Payload: payload})
}

// Error terminates the event stream for one failed operation.
func (s *RoomSink) Error(message string) {
	s.hub.Publish(s.room, Event{Type: "error", Status: "failed", Message: message})
}
