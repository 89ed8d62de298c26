package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"valetpark.org/internal/auth"
	"valetpark.org/internal/host"
)

// stubStore is an in-memory host.Store backing the handler tests.
type stubStore struct {
	mu        sync.Mutex
	hosts     map[string]*host.Host
	users     map[string]*host.User
	countries map[string]*host.Country
	tokens    map[string]*host.RefreshToken
}

func newStubStore() *stubStore {
	return &stubStore{
		hosts:     make(map[string]*host.Host),
		users:     make(map[string]*host.User),
		countries: make(map[string]*host.Country),
		tokens:    make(map[string]*host.RefreshToken),
	}
}

func (s *stubStore) Hosts(context.Context) host.HostStore        { return (*stubHosts)(s) }
func (s *stubStore) Users(context.Context) host.UserStore        { return (*stubUsers)(s) }
func (s *stubStore) Countries(context.Context) host.CountryStore { return (*stubCountries)(s) }
func (s *stubStore) RefreshTokens(context.Context) host.RefreshTokenStore {
	return (*stubTokens)(s)
}

func (s *stubStore) RegisterHost(_ context.Context, h *host.Host, master *host.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[h.ID] = h
	s.users[master.ID] = master
	return nil
}

type stubHosts stubStore

func (s *stubHosts) Create(_ context.Context, h *host.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[h.ID] = h
	return nil
}

func (s *stubHosts) Find(_ context.Context, id string) (*host.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hosts[id]; ok {
		return h, nil
	}
	return nil, host.ErrNotFound
}

func (s *stubHosts) FindByHandle(_ context.Context, handle string) (*host.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hosts {
		if h.Handle == handle {
			return h, nil
		}
	}
	return nil, host.ErrNotFound
}

type stubUsers stubStore

func (s *stubUsers) Create(_ context.Context, u *host.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *stubUsers) Find(_ context.Context, id string) (*host.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, host.ErrNotFound
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*host.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.Status == host.StatusActive {
			return u, nil
		}
	}
	return nil, host.ErrNotFound
}

func (s *stubUsers) ListByHost(_ context.Context, hostID string) ([]*host.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*host.User
	for _, u := range s.users {
		if u.HostID == hostID && u.Status == host.StatusActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return host.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type stubCountries stubStore

func (s *stubCountries) Create(_ context.Context, c *host.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[c.Code] = c
	return nil
}

func (s *stubCountries) Find(_ context.Context, code string) (*host.Country, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.countries[code]; ok {
		return c, nil
	}
	return nil, host.ErrNotFound
}

func (s *stubCountries) List(_ context.Context) ([]*host.Country, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*host.Country
	for _, c := range s.countries {
		out = append(out, c)
	}
	return out, nil
}

type stubTokens stubStore

func (s *stubTokens) Create(_ context.Context, tok *host.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok.Token] = tok
	return nil
}

func (s *stubTokens) Find(_ context.Context, token string) (*host.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.tokens[token]; ok {
		copied := *tok
		return &copied, nil
	}
	return nil, host.ErrNotFound
}

func (s *stubTokens) MarkRevoked(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.tokens[token]; ok {
		tok.Revoked = true
	}
	return nil
}

func (s *stubTokens) MarkRevokedByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range s.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
		}
	}
	return nil
}

func (s *stubTokens) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// testAPI wires an API over the stub store with a low bcrypt cost.
func testAPI(t *testing.T) (*API, *stubStore) {
	t.Helper()
	store := newStubStore()
	signer, err := auth.NewSigner("test-secret")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	authSvc, err := auth.NewService(store, signer)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	hostSvc, err := host.NewService(store, host.WithBcryptCost(4))
	if err != nil {
		t.Fatalf("host.NewService: %v", err)
	}
	return New(authSvc, hostSvc, ReadyProbe{}, "test"), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (map[string]any, string) {
	t.Helper()
	var env struct {
		Data     json.RawMessage `json:"data"`
		InfoType string          `json:"infoType"`
		Message  string          `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, rr.Body.String())
	}
	var data map[string]any
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			// data may be an array; callers that care decode it themselves
			data = nil
		}
	}
	return data, env.InfoType
}

func registerAndLogin(t *testing.T, handler http.Handler) (hostID, access, refresh string) {
	t.Helper()
	rr := doJSON(t, handler, http.MethodPost, "/v1/host/register", "", `{
		"host_name": "Acme Parking",
		"host_type": "organization",
		"host_email": "ops@acme.example",
		"handle": "acme",
		"contact_number": "+1-555-0100",
		"master_first_name": "Alice",
		"master_password": "s3cret"
	}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeEnvelope(t, rr)
	hostID, _ = data["id"].(string)
	if hostID == "" {
		t.Fatal("register response missing host id")
	}

	rr = doJSON(t, handler, http.MethodPost, "/v1/auth/login", "", `{"username":"acme","password":"s3cret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data, _ = decodeEnvelope(t, rr)
	access, _ = data["access_token"].(string)
	refresh, _ = data["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatal("login response missing tokens")
	}
	return hostID, access, refresh
}
