package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/lcu"
)

const (
	defaultMatchCount = 5
	maxMatchCount     = 20
)

// SummonerService reads the logged-in player's profile from the game client.
type SummonerService interface {
	CurrentSummoner(ctx context.Context) (*lcu.Summoner, error)
	RankedStats(ctx context.Context) ([]lcu.RankedQueue, error)
	MatchHistory(ctx context.Context, count int) ([]lcu.MatchSummary, error)
}

// SummonerHandler handles player profile requests.
type SummonerHandler struct {
	service SummonerService
}

// NewSummonerHandler creates a new SummonerHandler.
func NewSummonerHandler(service SummonerService) *SummonerHandler {
	return &SummonerHandler{service: service}
}

// GetSummoner returns the logged-in summoner.
func (h *SummonerHandler) GetSummoner(w http.ResponseWriter, r *http.Request) {
	summoner, err := h.service.CurrentSummoner(r.Context())
	if err != nil {
		clientError(w, err)
		return
	}
	response.Success(w, summoner)
}

// GetRanked returns solo and flex ranked standings.
func (h *SummonerHandler) GetRanked(w http.ResponseWriter, r *http.Request) {
	queues, err := h.service.RankedStats(r.Context())
	if err != nil {
		clientError(w, err)
		return
	}
	if queues == nil {
		queues = []lcu.RankedQueue{}
	}
	response.Success(w, queues)
}

// GetMatches returns recent matches. count defaults to 5 and is capped at 20.
func (h *SummonerHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	count := defaultMatchCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, errors.New("count must be a positive integer"))
			return
		}
		count = min(n, maxMatchCount)
	}

	matches, err := h.service.MatchHistory(r.Context(), count)
	if err != nil {
		clientError(w, err)
		return
	}
	if matches == nil {
		matches = []lcu.MatchSummary{}
	}
	response.Success(w, matches)
}

// clientError maps game client failures: a closed client is unavailable,
// anything it answered badly is an upstream error.
func clientError(w http.ResponseWriter, err error) {
	var statusErr *lcu.StatusError
	switch {
	case errors.Is(err, lcu.ErrNotRunning):
		response.ServiceUnavailable(w, err)
	case errors.As(err, &statusErr):
		response.BadGateway(w, err)
	default:
		response.InternalError(w, err)
	}
}
