package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"valetpark.org/internal/auth"
	"valetpark.org/internal/host"
)

const (
	infoSuccess = "SUCCESS"
	infoError   = "ERROR"
	infoWarning = "WARNING"
)

// envelope is the uniform response body. Every endpoint, success or
// failure, answers with this shape.
type envelope struct {
	Data     any    `json:"data"`
	InfoType string `json:"infoType"`
	Message  string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, code int, data any, message string) {
	writeJSON(w, code, envelope{Data: data, InfoType: infoSuccess, Message: message})
}

func writeWarning(w http.ResponseWriter, code int, data any, message string) {
	writeJSON(w, code, envelope{Data: data, InfoType: infoWarning, Message: message})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{InfoType: infoError, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps service sentinels to HTTP statuses. Anything
// unmatched is a 500 with a generic message; internals stay internal.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrTokenNotFound):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, host.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, host.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, host.ErrHostExists),
		errors.Is(err, host.ErrUsernameExists),
		errors.Is(err, host.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
