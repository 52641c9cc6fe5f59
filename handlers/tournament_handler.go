package handlers

import (
	"net/http"

	"github.com/padelops/tournament-engine/services"
	"github.com/padelops/tournament-engine/stream"
)

type TournamentHandler struct {
	service services.TournamentService
	hub     *stream.Hub
}

func NewTournamentHandler(service services.TournamentService, hub *stream.Hub) *TournamentHandler {
	return &TournamentHandler{service: service, hub: hub}
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	t, err := h.service.Create(r.Context(), owner, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t}, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournaments, err := h.service.List(r.Context(), owner)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	overview, err := h.service.GetOverview(r.Context(), owner, tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview, nil)
}

func (h *TournamentHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input services.TeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	team, err := h.service.AddTeam(r.Context(), owner, tournamentID, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil)
}

func (h *TournamentHandler) AddCourt(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	court, err := h.service.AddCourt(r.Context(), owner, tournamentID, input.Name)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil)
}

func (h *TournamentHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		TeamIDs  []int                    `json:"team_ids"`
		Schedule *services.ScheduleConfig `json:"schedule,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	room := streamSink(r, h.hub, tournamentID)
	result, err := h.service.CloseRegistration(r.Context(), owner, tournamentID, input.TeamIDs, input.Schedule, progressSink(room))
	if err != nil {
		if room != nil {
			room.Error(err.Error())
		}
		mapServiceError(w, err)
		return
	}
	if room != nil {
		room.Success("registration closed", result)
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

func (h *TournamentHandler) CloseGroups(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input struct {
		Schedule *services.ScheduleConfig `json:"schedule,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	room := streamSink(r, h.hub, tournamentID)
	result, err := h.service.CloseGroups(r.Context(), owner, tournamentID, input.Schedule, progressSink(room))
	if err != nil {
		if room != nil {
			room.Error(err.Error())
		}
		mapServiceError(w, err)
		return
	}
	if room != nil {
		room.Success("groups closed", result)
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

func (h *TournamentHandler) PreviewBracket(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var cfg *services.ScheduleConfig
	if r.ContentLength > 0 {
		var input struct {
			Schedule *services.ScheduleConfig `json:"schedule,omitempty"`
		}
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, err)
			return
		}
		cfg = input.Schedule
	}
	preview, err := h.service.PreviewBracket(r.Context(), owner, tournamentID, cfg)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"bracket": preview}, nil)
}
