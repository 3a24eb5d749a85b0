package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/LoL-Companion/internal/api/handlers"
	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/version"
)

var errUnavailable = errors.New("service is not configured")

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.services.Draft != nil {
			draftHandler := handlers.NewDraftHandler(s.services.Draft)
			r.Route("/draft", func(r chi.Router) {
				r.Get("/", draftHandler.GetDraft)
				r.Put("/role", draftHandler.SelectRole)
				r.Get("/roles", draftHandler.GetRoles)
			})

			connectionHandler := handlers.NewConnectionHandler(s.services.Draft)
			r.Get("/connection", connectionHandler.GetConnection)
		} else {
			r.HandleFunc("/draft", unavailable)
			r.HandleFunc("/draft/*", unavailable)
			r.HandleFunc("/connection", unavailable)
		}

		if s.services.Champions != nil {
			championHandler := handlers.NewChampionHandler(s.services.Champions)
			r.Route("/champions", func(r chi.Router) {
				r.Get("/", championHandler.GetChampions)
				r.Get("/{championID}", championHandler.GetChampion)
			})
		} else {
			r.HandleFunc("/champions", unavailable)
			r.HandleFunc("/champions/*", unavailable)
		}

		if s.services.Summoner != nil {
			summonerHandler := handlers.NewSummonerHandler(s.services.Summoner)
			r.Route("/summoner", func(r chi.Router) {
				r.Get("/", summonerHandler.GetSummoner)
				r.Get("/ranked", summonerHandler.GetRanked)
				r.Get("/matches", summonerHandler.GetMatches)
			})
		} else {
			r.HandleFunc("/summoner", unavailable)
			r.HandleFunc("/summoner/*", unavailable)
		}

		if s.services.Metrics != nil {
			r.Get("/metrics", handlers.NewMetricsHandler(s.services.Metrics).GetMetrics)
		} else {
			r.HandleFunc("/metrics", unavailable)
		}
	})
}

func unavailable(w http.ResponseWriter, _ *http.Request) {
	response.ServiceUnavailable(w, errUnavailable)
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "lol-companion-api",
		"version": version.GetVersion(),
		"clients": s.wsHub.ClientCount(),
	})
}
