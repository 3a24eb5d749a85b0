package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/engine"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
)

// mockDraftService is a mock implementation of the engine for testing.
type mockDraftService struct {
	projection *engine.Projection
	selected   []identity.Role
	err        error
}

func (m *mockDraftService) Projection() *engine.Projection {
	return m.projection
}

func (m *mockDraftService) SelectRole(_ context.Context, role identity.Role) error {
	if m.err != nil {
		return m.err
	}
	m.selected = append(m.selected, role)
	m.projection.Operator.Role = role
	return nil
}

func draftProjection() *engine.Projection {
	cell := draft.CellID(2)
	return &engine.Projection{
		Version:    4,
		SessionID:  "5f0c7d2e-6a43-4a8e-9d43-4b53a1f2c001",
		Connection: supervisor.ConnectedInDraft,
		InDraft:    true,
		Phase:      "BAN_PICK",
		Operator: engine.OperatorView{
			CellID:         &cell,
			TeamID:         100,
			Role:           identity.RoleUnassigned,
			AvailableRoles: []identity.Role{identity.RoleMiddle, identity.RoleUtility},
			CanSelectRole:  true,
		},
	}
}

func putRole(t *testing.T, h *DraftHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/draft/role", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.SelectRole(rec, req)
	return rec
}

func TestDraftHandler_GetDraft(t *testing.T) {
	h := NewDraftHandler(&mockDraftService{projection: draftProjection()})

	rec := httptest.NewRecorder()
	h.GetDraft(rec, httptest.NewRequest(http.MethodGet, "/api/v1/draft", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body struct {
		Data struct {
			Phase      string `json:"phase"`
			Connection string `json:"connection"`
			InDraft    bool   `json:"in_draft"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Data.Phase != "BAN_PICK" || !body.Data.InDraft {
		t.Errorf("Unexpected projection: %+v", body.Data)
	}
	if body.Data.Connection != "connected_in_draft" {
		t.Errorf("Expected connection state name, got %q", body.Data.Connection)
	}
}

func TestDraftHandler_SelectRole(t *testing.T) {
	svc := &mockDraftService{projection: draftProjection()}
	h := NewDraftHandler(svc)

	rec := putRole(t, h, `{"role":"mid"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.selected) != 1 || svc.selected[0] != identity.RoleMiddle {
		t.Errorf("Expected MIDDLE to be selected, got %v", svc.selected)
	}

	rec = putRole(t, h, `{"role":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 when clearing, got %d", rec.Code)
	}
	if svc.selected[1] != identity.RoleUnassigned {
		t.Errorf("Expected the role to be cleared, got %q", svc.selected[1])
	}
}

func TestDraftHandler_SelectRoleErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{"role":`, nil, http.StatusBadRequest},
		{"unknown role", `{"role":"CARRY"}`, nil, http.StatusBadRequest},
		{"no draft", `{"role":"TOP"}`, engine.ErrNoDraft, http.StatusConflict},
		{"identity unknown", `{"role":"TOP"}`, identity.ErrIdentityUnknown, http.StatusConflict},
		{"taken by teammate", `{"role":"TOP"}`, identity.ErrRoleTaken, http.StatusConflict},
		{"assigned by client", `{"role":"TOP"}`, identity.ErrRoleAssigned, http.StatusConflict},
		{"engine stopped", `{"role":"TOP"}`, engine.ErrStopped, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDraftHandler(&mockDraftService{projection: draftProjection(), err: tt.err})
			rec := putRole(t, h, tt.body)
			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestDraftHandler_GetRoles(t *testing.T) {
	h := NewDraftHandler(&mockDraftService{projection: draftProjection()})

	rec := httptest.NewRecorder()
	h.GetRoles(rec, httptest.NewRequest(http.MethodGet, "/api/v1/draft/roles", nil))

	var body struct {
		Data RolesResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Data.Roles) != 5 {
		t.Errorf("Expected 5 roles, got %v", body.Data.Roles)
	}
	if len(body.Data.Available) != 2 || body.Data.Available[0] != identity.RoleMiddle {
		t.Errorf("Expected [MIDDLE UTILITY], got %v", body.Data.Available)
	}
	if !body.Data.CanSelectRole {
		t.Error("Expected can_select_role")
	}
}

func TestConnectionHandler_GetConnection(t *testing.T) {
	p := draftProjection()
	p.Connection = supervisor.Disconnected
	p.InDraft = false
	h := NewConnectionHandler(&mockDraftService{projection: p})

	rec := httptest.NewRecorder()
	h.GetConnection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/connection", nil))

	var body struct {
		Data struct {
			State     string `json:"state"`
			Connected bool   `json:"connected"`
			InDraft   bool   `json:"in_draft"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Data.State != "disconnected" || body.Data.Connected || body.Data.InDraft {
		t.Errorf("Unexpected connection body: %+v", body.Data)
	}
}
