package handlers

import (
	"net/http"

	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
)

// ConnectionHandler reports game client connectivity.
type ConnectionHandler struct {
	service DraftService
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(service DraftService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// ConnectionResponse is the body of GET /connection.
type ConnectionResponse struct {
	State     supervisor.State `json:"state"`
	Connected bool             `json:"connected"`
	InDraft   bool             `json:"in_draft"`
	SessionID string           `json:"session_id,omitempty"`
}

// GetConnection returns the supervisor state from the latest projection.
func (h *ConnectionHandler) GetConnection(w http.ResponseWriter, _ *http.Request) {
	p := h.service.Projection()
	response.Success(w, ConnectionResponse{
		State:     p.Connection,
		Connected: p.Connection != supervisor.Disconnected,
		InDraft:   p.InDraft,
		SessionID: p.SessionID,
	})
}
