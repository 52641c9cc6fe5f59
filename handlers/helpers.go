package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/padelops/tournament-engine/engine"
	"github.com/padelops/tournament-engine/middleware"
	"github.com/padelops/tournament-engine/services"
	"github.com/padelops/tournament-engine/stream"
)

// streamSink returns the tournament's room sink when the client asked for
// event streaming with ?stream=1, nil otherwise. The handler is responsible
// for closing the stream with exactly one terminal success or error event
// once the operation resolves.
func streamSink(r *http.Request, hub *stream.Hub, tournamentID int) *stream.RoomSink {
	if r.URL.Query().Get("stream") != "1" {
		return nil
	}
	return stream.NewRoomSink(hub, stream.TournamentRoom(tournamentID))
}

func progressSink(room *stream.RoomSink) engine.ProgressSink {
	if room == nil {
		return engine.NopSink()
	}
	return room
}

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		log.Printf("handlers: failed to write error response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	log.Printf("internal server error: %v", err)
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func ownerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := middleware.OwnerIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return id, true
}

// mapServiceError translates the service error taxonomy to HTTP statuses:
// malformed input 422, missing resources 404, violated preconditions and
// capacity shortfalls 409, everything else 500.
func mapServiceError(w http.ResponseWriter, err error) {
	var capErr *engine.CapacityError

	switch {
	case errors.As(err, &capErr):
		env := jsonResponse{
			"error":           capErr.Error(),
			"slots_needed":    capErr.SlotsNeeded,
			"slots_available": capErr.SlotsAvailable,
		}
		if writeErr := writeJSON(w, http.StatusConflict, env, nil); writeErr != nil {
			log.Printf("handlers: failed to write capacity response: %v", writeErr)
		}

	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrGroupNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTournamentNameEmpty),
		errors.Is(err, services.ErrTeamPlayersRequired),
		errors.Is(err, services.ErrDuplicateTeams),
		errors.Is(err, services.ErrForeignTeams),
		errors.Is(err, services.ErrForeignCourts),
		errors.Is(err, services.ErrNoSetScores),
		errors.Is(err, engine.ErrInvalidSets),
		errors.Is(err, engine.ErrInvalidSlotConfig),
		errors.Is(err, engine.ErrNotEnoughTeams),
		errors.Is(err, engine.ErrNotEnoughQualifiers),
		errors.Is(err, engine.ErrTooManyQualifiers):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrGroupsAlreadyExist),
		errors.Is(err, services.ErrGroupsNotFormed),
		errors.Is(err, services.ErrGroupStageNotFinished),
		errors.Is(err, services.ErrBracketAlreadyExists),
		errors.Is(err, services.ErrMatchTeamsNotSet),
		errors.Is(err, services.ErrMatchAlreadyFinished),
		errors.Is(err, services.ErrMatchCancelled),
		errors.Is(err, services.ErrDependentResultRecorded),
		errors.Is(err, engine.ErrNoFeasibleSlot):
		errorResponse(w, http.StatusConflict, err.Error())

	default:
		serverErrorResponse(w, err)
	}
}
