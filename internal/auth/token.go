package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"valetpark.org/internal/host"
)

const (
	tokenTypeAccess = "access"

	defaultIssuer    = "valetpark-auth"
	defaultAccessTTL = 15 * time.Minute
)

// Claims are the verified contents of an access token.
type Claims struct {
	Role      string   `json:"role"`
	Scopes    []string `json:"scopes"`
	HostID    string   `json:"host_id,omitempty"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// Signer creates and verifies signed access tokens and mints opaque
// refresh token strings. Access tokens are self-contained (no store
// lookup on verification); refresh tokens carry no claims at all and are
// only meaningful as ledger keys.
type Signer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// SignerOption configures Signer behavior.
type SignerOption func(*Signer)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) SignerOption {
	return func(s *Signer) {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) SignerOption {
	return func(s *Signer) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithSignerClock overrides the time source (useful for tests).
func WithSignerClock(fn func() time.Time) SignerOption {
	return func(s *Signer) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSigner constructs a Signer around a shared HS256 secret.
func NewSigner(secret string, opts ...SignerOption) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	s := &Signer{
		secret:    []byte(secret),
		issuer:    defaultIssuer,
		accessTTL: defaultAccessTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Signer) AccessTTL() time.Duration { return s.accessTTL }

// AccessToken signs an access token for the user. Returns the compact
// token string and its expiry.
func (s *Signer) AccessToken(username string, role host.Role, hostID string, scopes []string) (string, time.Time, error) {
	if strings.TrimSpace(username) == "" {
		return "", time.Time{}, errors.New("auth: username is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		Role:      string(role),
		Scopes:    scopes,
		HostID:    hostID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// NewRefreshToken returns a random opaque string with 256 bits of
// entropy. It is a ledger key, not a credential with embedded claims.
func (s *Signer) NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks signature, shape and expiry and returns the claims.
// Any failure is reported as ErrInvalidToken.
func (s *Signer) Verify(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ScopesOf extracts the scope set from a token. It returns an empty set
// on any parse failure or when the claim is absent: a bad token grants no
// extra scopes, it does not raise an error here.
func (s *Signer) ScopesOf(token string) []string {
	claims, err := s.parse(token)
	if err != nil || len(claims.Scopes) == 0 {
		return nil
	}
	out := make([]string, len(claims.Scopes))
	copy(out, claims.Scopes)
	return out
}

func (s *Signer) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
