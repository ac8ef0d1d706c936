package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"projectguard.org/internal/account"
	"projectguard.org/internal/audit"
	"projectguard.org/internal/ids"
	"projectguard.org/internal/session"
)

type linkAssistantRequest struct {
	ManagerID   string `json:"manager_id"`
	AssistantID string `json:"assistant_id"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// handleUsers serves the /api/users listing. The admin gate lives in the
// RequireRole wrapper installed at route registration.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	accounts, err := a.accounts.List(r.Context())
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": accounts})
}

// handleUsersScoped routes /api/users/... subpaths by hand, the mux carries
// no parameter support.
func (a *API) handleUsersScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if path == "" {
		a.listUsers.ServeHTTP(w, r)
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1 && parts[0] == "link-assistant":
		a.handleLinkAssistant(w, r)
	case len(parts) == 2 && parts[0] == "assistants":
		a.handleAssistants(w, r, parts[1])
	case len(parts) == 2 && parts[1] == "role":
		a.handleChangeRole(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleLinkAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireRole(w, r, "admin") {
		return
	}
	var req linkAssistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ManagerID == "" || req.AssistantID == "" {
		writeError(w, r, http.StatusBadRequest, "manager_id and assistant_id are required")
		return
	}
	if err := a.accounts.LinkAssistant(r.Context(), req.ManagerID, req.AssistantID); err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.assistant.linked", map[string]any{
		"manager_id":   req.ManagerID,
		"assistant_id": req.AssistantID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "linked"})
}

func (a *API) handleAssistants(w http.ResponseWriter, r *http.Request, managerID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	// a manager may list their own assistants, everyone else needs admin
	self, ok := session.AccountIDFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="projectguard"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if self != managerID && !session.HasRole(r.Context(), "admin") {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return
	}
	assistants, err := a.accounts.Assistants(r.Context(), managerID)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assistants": assistants})
}

func (a *API) handleChangeRole(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.requireRole(w, r, "admin") {
		return
	}
	if !ids.Valid(id) {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, err := a.accounts.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.role.changed", map[string]any{
		"target_id": acct.ID,
		"role":      acct.Role,
	})
	writeJSON(w, http.StatusOK, acct)
}

func handleAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidRole), errors.Is(err, account.ErrInvalidLink):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "account not found")
	case errors.Is(err, account.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "account storage unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
