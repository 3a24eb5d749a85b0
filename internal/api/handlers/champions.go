package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/champions"
	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// ChampionService provides static champion data.
type ChampionService interface {
	Version(ctx context.Context) string
	List(ctx context.Context) ([]champions.Champion, error)
	Get(ctx context.Context, id draft.ChampionID) (*champions.Champion, error)
}

// ChampionHandler handles champion catalog requests.
type ChampionHandler struct {
	service ChampionService
}

// NewChampionHandler creates a new ChampionHandler.
func NewChampionHandler(service ChampionService) *ChampionHandler {
	return &ChampionHandler{service: service}
}

// ChampionListResponse is the body of GET /champions.
type ChampionListResponse struct {
	Version   string               `json:"version"`
	Champions []champions.Champion `json:"champions"`
}

// GetChampions returns every champion of the cached patch.
func (h *ChampionHandler) GetChampions(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, ChampionListResponse{
		Version:   h.service.Version(r.Context()),
		Champions: list,
	})
}

// GetChampion returns one champion by numeric id.
func (h *ChampionHandler) GetChampion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "championID"))
	if err != nil || id <= 0 {
		response.BadRequest(w, errors.New("invalid champion ID"))
		return
	}

	champion, err := h.service.Get(r.Context(), draft.ChampionID(id))
	if errors.Is(err, champions.ErrNotFound) {
		response.NotFound(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, champion)
}
