package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestLoginAndRefreshFlow(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()

	_, access, refresh := registerAndLogin(t, handler)

	// refresh issues a new access token but keeps the refresh token
	rr := doJSON(t, handler, http.MethodPost, "/v1/auth/refresh-token", "", `{"refresh_token":"`+refresh+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data, infoType := decodeEnvelope(t, rr)
	if infoType != "SUCCESS" {
		t.Fatalf("unexpected infoType: %s", infoType)
	}
	if got, _ := data["refresh_token"].(string); got != refresh {
		t.Fatal("refresh must not rotate the refresh token")
	}
	if newAccess, _ := data["access_token"].(string); newAccess == "" || newAccess == access {
		t.Fatal("expected a fresh access token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"acme","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if _, infoType := decodeEnvelope(t, rr); infoType != "ERROR" {
		t.Fatalf("expected ERROR envelope, got %s", infoType)
	}
}

func TestLogoutThenRefreshFails(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, refresh := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/auth/logout", access, `{"refresh_token":"`+refresh+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	// logout is idempotent
	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/logout", access, `{"refresh_token":"`+refresh+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("repeat logout: expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/refresh-token", "", `{"refresh_token":"`+refresh+`"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", rr.Code)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, refresh1 := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"acme","password":"s3cret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("second login: expected 200, got %d", rr.Code)
	}
	data, _ := decodeEnvelope(t, rr)
	refresh2, _ := data["refresh_token"].(string)

	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/logout-all", access, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("logout-all: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	for _, refresh := range []string{refresh1, refresh2} {
		rr = doJSON(t, handler, http.MethodPost, "/v1/auth/refresh-token", "", `{"refresh_token":"`+refresh+`"}`)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout-all, got %d", rr.Code)
		}
	}
}

func TestValidateTokenEndpoint(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodGet, "/v1/auth/validate-token?token="+access, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	data, infoType := decodeEnvelope(t, rr)
	if infoType != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %s", infoType)
	}
	if valid, _ := data["valid"].(bool); !valid {
		t.Fatal("expected valid=true")
	}

	rr = doJSON(t, handler, http.MethodGet, "/v1/auth/validate-token?token=garbage", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for invalid token, got %d", rr.Code)
	}
	data, infoType = decodeEnvelope(t, rr)
	if infoType != "WARNING" {
		t.Fatalf("expected WARNING, got %s", infoType)
	}
	if valid, _ := data["valid"].(bool); valid {
		t.Fatal("expected valid=false")
	}

	rr = doJSON(t, handler, http.MethodGet, "/v1/auth/validate-token", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token param, got %d", rr.Code)
	}
}

func TestRegisterDuplicateHandleReturns400(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/host/register", "", `{
		"host_name": "Acme Clone",
		"host_type": "organization",
		"host_email": "clone@acme.example",
		"handle": "acme",
		"contact_number": "+1-555-0199",
		"master_first_name": "Eve",
		"master_password": "pw"
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetHostMembership(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	hostID, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodGet, "/v1/host/"+hostID, access, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeEnvelope(t, rr)
	if got, _ := data["handle"].(string); got != "acme" {
		t.Fatalf("unexpected host payload: %v", data)
	}

	// another org's host is off limits
	rr = doJSON(t, handler, http.MethodGet, "/v1/host/other-host", access, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-host read, got %d", rr.Code)
	}
}

func TestCreateAndListUsers(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	hostID, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/host-users/create?hostId="+hostID, access, `{
		"username": "bob",
		"email": "bob@acme.example",
		"password": "bobpw",
		"first_name": "Bob"
	}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeEnvelope(t, rr)
	if got, _ := data["role"].(string); got != "HOST_EMPLOYEE" {
		t.Fatalf("expected default employee role, got %v", data["role"])
	}

	rr = doJSON(t, handler, http.MethodGet, "/v1/host-users/host/"+hostID, access, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", rr.Code)
	}
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(env.Data) != 2 {
		t.Fatalf("expected master and bob, got %d users", len(env.Data))
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatal("password material leaked into the response")
	}
}

func TestEmployeeCannotCreateUsers(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	hostID, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/host-users/create?hostId="+hostID, access, `{
		"username": "bob",
		"email": "bob@acme.example",
		"password": "bobpw",
		"first_name": "Bob"
	}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"bob","password":"bobpw"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("bob login: expected 200, got %d", rr.Code)
	}
	data, _ := decodeEnvelope(t, rr)
	bobAccess, _ := data["access_token"].(string)

	// bob only holds read scope, so the write-gated route 403s in the filter
	rr = doJSON(t, handler, http.MethodPost, "/v1/host-users/create?hostId="+hostID, bobAccess, `{
		"username": "carol",
		"email": "carol@acme.example",
		"password": "pw",
		"first_name": "Carol"
	}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee create, got %d", rr.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodGet, "/v1/host-users/me", access, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeEnvelope(t, rr)
	if got, _ := data["username"].(string); got != "acme" {
		t.Fatalf("unexpected me payload: %v", data)
	}
	if got, _ := data["role"].(string); got != "HOST_MASTER" {
		t.Fatalf("expected master role, got %v", data["role"])
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodGet, "/v1/host-users/me", access, "")
	data, _ := decodeEnvelope(t, rr)
	userID, _ := data["id"].(string)
	if userID == "" {
		t.Fatal("me response missing id")
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/host-users/"+userID+"/change-password", access, `{
		"current_password": "s3cret",
		"new_password": "n3w-pass",
		"confirm_password": "n3w-pass"
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("change-password: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// old password no longer works, new one does
	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"acme","password":"s3cret"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("old password: expected 401, got %d", rr.Code)
	}
	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"acme","password":"n3w-pass"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("new password: expected 200, got %d", rr.Code)
	}
}

func TestCountryEndpoints(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()
	_, access, _ := registerAndLogin(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/v1/admin/countries", access, `{"code":"us","name":"United States"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create country: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodGet, "/v1/country", access, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list countries: expected 200, got %d", rr.Code)
	}
	var env struct {
		Data []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode countries: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Code != "US" {
		t.Fatalf("unexpected catalog: %+v", env.Data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		rr := doJSON(t, handler, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}

	rr := doJSON(t, handler, http.MethodGet, "/no-such-route", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api, _ := testAPI(t)
	handler := api.Handler()

	rr := doJSON(t, handler, http.MethodGet, "/v1/auth/login", "", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != "POST" {
		t.Fatalf("expected Allow header, got %q", rr.Header().Get("Allow"))
	}
}
