package handlers

import (
	"net/http"

	"github.com/padelops/tournament-engine/services"
	"github.com/padelops/tournament-engine/stream"
)

type ScheduleHandler struct {
	service services.ScheduleService
	hub     *stream.Hub
}

func NewScheduleHandler(service services.ScheduleService, hub *stream.Hub) *ScheduleHandler {
	return &ScheduleHandler{service: service, hub: hub}
}

func (h *ScheduleHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var cfg services.ScheduleConfig
	if err := readJSON(w, r, &cfg); err != nil {
		badRequestResponse(w, err)
		return
	}
	room := streamSink(r, h.hub, tournamentID)
	result, err := h.service.Regenerate(r.Context(), owner, tournamentID, cfg, progressSink(room))
	if err != nil {
		if room != nil {
			room.Error(err.Error())
		}
		mapServiceError(w, err)
		return
	}
	if room != nil {
		room.Success("schedule regenerated", result)
	}
	writeJSON(w, http.StatusOK, result, nil)
}

func (h *ScheduleHandler) AddRestriction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var input services.RestrictionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	restriction, err := h.service.AddRestriction(r.Context(), owner, input)
	if err != nil {
		mapServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"restriction": restriction}, nil)
}
