// Package handlers implements the REST endpoints of the presentation API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ramonehamilton/LoL-Companion/internal/api/response"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/engine"
)

// DraftService is the part of the engine the draft endpoints use.
type DraftService interface {
	Projection() *engine.Projection
	SelectRole(ctx context.Context, role identity.Role) error
}

// DraftHandler handles draft-related API requests.
type DraftHandler struct {
	service DraftService
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(service DraftService) *DraftHandler {
	return &DraftHandler{service: service}
}

// SelectRoleRequest is the body of PUT /draft/role. An empty role clears
// the selection.
type SelectRoleRequest struct {
	Role string `json:"role"`
}

// RolesResponse describes which roles the operator may pick.
type RolesResponse struct {
	Roles         []identity.Role `json:"roles"`
	Available     []identity.Role `json:"available"`
	Selected      identity.Role   `json:"selected"`
	CanSelectRole bool            `json:"can_select_role"`
}

// GetDraft returns the current projection.
func (h *DraftHandler) GetDraft(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.service.Projection())
}

// SelectRole records the operator's role and returns the new projection.
func (h *DraftHandler) SelectRole(w http.ResponseWriter, r *http.Request) {
	var req SelectRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	role, ok := identity.ParseRole(req.Role)
	if !ok {
		response.BadRequest(w, fmt.Errorf("%w: %q", identity.ErrInvalidRole, req.Role))
		return
	}

	if err := h.service.SelectRole(r.Context(), role); err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidRole):
			response.BadRequest(w, err)
		case errors.Is(err, engine.ErrNoDraft),
			errors.Is(err, identity.ErrIdentityUnknown),
			errors.Is(err, identity.ErrRoleTaken),
			errors.Is(err, identity.ErrRoleAssigned):
			response.Conflict(w, err)
		case errors.Is(err, engine.ErrStopped):
			response.ServiceUnavailable(w, err)
		default:
			response.InternalError(w, err)
		}
		return
	}

	response.Success(w, h.service.Projection())
}

// GetRoles returns the role catalogue and what the operator may choose.
func (h *DraftHandler) GetRoles(w http.ResponseWriter, _ *http.Request) {
	p := h.service.Projection()

	available := p.Operator.AvailableRoles
	if available == nil {
		available = []identity.Role{}
	}

	response.Success(w, RolesResponse{
		Roles:         identity.Roles,
		Available:     available,
		Selected:      p.Operator.Role,
		CanSelectRole: p.Operator.CanSelectRole,
	})
}
