package httpapi

import (
	"net/http"
	"strings"

	"valetpark.org/internal/audit"
	"valetpark.org/internal/auth"
	"valetpark.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		obs.ObserveLogin("failure")
		handleDomainError(w, err)
		return
	}
	obs.ObserveLogin("success")

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": session.Username,
		"host_id":  session.HostID,
	})
	writeSuccess(w, http.StatusOK, session, "login successful")
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	refreshed, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		obs.ObserveRefresh("failure")
		handleDomainError(w, err)
		return
	}
	obs.ObserveRefresh("success")

	writeSuccess(w, http.StatusOK, refreshed, "token refreshed")
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

func (a *API) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.auth.LogoutAll(r.Context(), identity.Username); err != nil {
		handleDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout_all", map[string]any{
		"username": identity.Username,
	})
	writeSuccess(w, http.StatusOK, nil, "all sessions revoked")
}

func (a *API) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "token query parameter is required")
		return
	}

	if !a.auth.ValidateToken(token) {
		writeWarning(w, http.StatusOK, validateResponse{Valid: false}, "token is invalid or expired")
		return
	}
	writeSuccess(w, http.StatusOK, validateResponse{Valid: true}, "token is valid")
}
