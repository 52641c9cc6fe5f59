package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/padelops/tournament-engine/handlers"
	"github.com/padelops/tournament-engine/middleware"
)

// SetupRoutes mounts the full API. Everything except the event stream sits
// behind JWT authentication; ownership checks live in the services.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	scheduleHandler *handlers.ScheduleHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.Subscribe)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", tournamentHandler.Create)
			r.Get("/", tournamentHandler.List)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.Get)
				r.Post("/teams", tournamentHandler.AddTeam)
				r.Post("/courts", tournamentHandler.AddCourt)
				r.Post("/close-registration", tournamentHandler.CloseRegistration)
				r.Post("/close-groups", tournamentHandler.CloseGroups)
				r.Post("/bracket/preview", tournamentHandler.PreviewBracket)
				r.Post("/schedule/regenerate", scheduleHandler.Regenerate)
			})
		})

		r.Post("/restrictions", scheduleHandler.AddRestriction)
		r.Post("/group-matches/{matchID}/result", matchHandler.SubmitGroupResult)
		r.Post("/playoff-matches/{matchID}/result", matchHandler.SubmitPlayoffResult)
	})
}
