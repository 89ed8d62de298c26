package httpapi

import (
	"context"
	"net/http"
	"strings"

	"valetpark.org/internal/audit"
	"valetpark.org/internal/auth"
	"valetpark.org/internal/host"
)

func (a *API) handleHostRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req host.RegistrationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h, err := a.hosts.Register(r.Context(), req)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "host.register", map[string]any{
		"host_id": h.ID,
		"handle":  h.Handle,
	})

	w.Header().Set("Location", "/v1/host/"+h.ID)
	writeSuccess(w, http.StatusCreated, h, "host registered")
}

func (a *API) handleHostResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	hostID := strings.TrimPrefix(r.URL.Path, "/v1/host/")
	if hostID == "" || strings.Contains(hostID, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	actor, err := a.actor(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	h, err := a.hosts.GetHost(r.Context(), actor, hostID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, h, "")
}

func (a *API) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	hostID := strings.TrimSpace(r.URL.Query().Get("hostId"))
	if hostID == "" {
		writeError(w, http.StatusBadRequest, "hostId query parameter is required")
		return
	}

	var req host.UserInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, err := a.actor(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	u, err := a.hosts.CreateUser(r.Context(), actor, hostID, req)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "host.user.create", map[string]any{
		"host_id":  hostID,
		"user_id":  u.ID,
		"username": u.Username,
		"role":     string(u.Role),
	})
	writeSuccess(w, http.StatusCreated, u, "user created")
}

// handleUserResource routes /v1/host-users/ subpaths: me, host/{hostId}
// and {userId}/change-password.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/host-users/")
	switch {
	case path == "me":
		a.getMe(w, r)
	case strings.HasPrefix(path, "host/"):
		a.listUsers(w, r, strings.TrimPrefix(path, "host/"))
	case strings.HasSuffix(path, "/change-password"):
		a.changePassword(w, r, strings.TrimSuffix(path, "/change-password"))
	default:
		writeError(w, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	actor, err := a.actor(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, actor, "")
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request, hostID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	hostID = strings.TrimSuffix(hostID, "/")
	if hostID == "" || strings.Contains(hostID, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	actor, err := a.actor(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	users, err := a.hosts.ListUsers(r.Context(), actor, hostID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, users, "")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, err := a.actor(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	if err := a.hosts.ChangePassword(r.Context(), actor, userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "host.user.change_password", map[string]any{
		"user_id": userID,
	})
	writeSuccess(w, http.StatusOK, nil, "password changed")
}

func (a *API) handleCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	countries, err := a.hosts.ListCountries(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, countries, "")
}

func (a *API) handleAdminCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req host.Country
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := a.hosts.CreateCountry(r.Context(), req)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "country.create", map[string]any{
		"code": c.Code,
	})
	writeSuccess(w, http.StatusCreated, c, "country created")
}

// actor resolves the authenticated identity to its stored user row. The
// store is the authority on role and status, not the token.
func (a *API) actor(ctx context.Context) (*host.User, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, host.ErrUnauthorized
	}
	return a.hosts.UserByUsername(ctx, identity.Username)
}
