package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"valetpark.org/internal/host"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

// Service orchestrates login, refresh and logout over the credential
// store and the refresh token ledger.
type Service struct {
	store      host.Store
	signer     *Signer
	now        func() time.Time
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store host.Store, signer *Signer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if signer == nil {
		return nil, errors.New("auth: signer is required")
	}
	s := &Service{
		store:      store,
		signer:     signer,
		now:        time.Now,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	HostID       string   `json:"host_id"`
	HostName     string   `json:"host_name"`
	Scopes       []string `json:"scopes"`
}

// Refreshed is the result of a refresh token exchange. The refresh token
// is returned unchanged: refresh does not rotate it.
type Refreshed struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Authenticate verifies credentials, mints an access token and persists a
// new ledger entry for the refresh token. Every login adds a session;
// concurrent sessions for one user are independent.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.store.Users(ctx).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.Status != host.StatusActive {
		return Session{}, ErrInvalidCredentials
	}
	if err := host.VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	owner, err := s.store.Hosts(ctx).Find(ctx, user.HostID)
	if err != nil {
		return Session{}, err
	}

	scopes := ScopesFor(user.Role)
	access, _, err := s.signer.AccessToken(user.Username, user.Role, user.HostID, scopes)
	if err != nil {
		return Session{}, err
	}

	refresh, err := s.signer.NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	rec := &host.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, rec); err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		Username:     user.Username,
		Role:         string(user.Role),
		HostID:       owner.ID,
		HostName:     owner.Name,
		Scopes:       scopes,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. Role and
// scopes are re-derived from the owning user at exchange time, so a role
// change takes effect on the next refresh. An entry whose expiry is at or
// before now is expired and removed from the ledger.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Refreshed, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Refreshed{}, ErrTokenNotFound
	}

	ledger := s.store.RefreshTokens(ctx)
	rec, err := ledger.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return Refreshed{}, ErrTokenNotFound
		}
		return Refreshed{}, err
	}

	if !rec.ExpiresAt.After(s.now()) {
		_ = ledger.Delete(ctx, rec.Token)
		return Refreshed{}, ErrTokenExpired
	}
	if rec.Revoked {
		return Refreshed{}, ErrTokenRevoked
	}

	user, err := s.store.Users(ctx).Find(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return Refreshed{}, ErrTokenNotFound
		}
		return Refreshed{}, err
	}

	access, _, err := s.signer.AccessToken(user.Username, user.Role, user.HostID, ScopesFor(user.Role))
	if err != nil {
		return Refreshed{}, err
	}
	return Refreshed{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the ledger entry for the refresh token. Unknown tokens
// are a no-op, which makes logout idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	ledger := s.store.RefreshTokens(ctx)
	if _, err := ledger.Find(ctx, refreshToken); err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return nil
		}
		return err
	}
	return ledger.MarkRevoked(ctx, refreshToken)
}

// LogoutAll revokes every outstanding refresh token of the user.
func (s *Service) LogoutAll(ctx context.Context, username string) error {
	user, err := s.store.Users(ctx).FindByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		if errors.Is(err, host.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.RefreshTokens(ctx).MarkRevokedByUser(ctx, user.ID)
}

// ValidateToken reports whether the access token verifies. All failure
// detail is swallowed into false.
func (s *Service) ValidateToken(token string) bool {
	_, err := s.signer.Verify(token)
	return err == nil
}

// VerifyAccess verifies a bearer token and returns the caller identity.
// Used by the access filter.
func (s *Service) VerifyAccess(token string) (Identity, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Username: claims.Subject,
		Role:     host.Role(claims.Role),
		HostID:   claims.HostID,
		Scopes:   claims.Scopes,
	}, nil
}
