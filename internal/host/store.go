package host

import "context"

// Store describes the persistence operations required by the host and auth
// subsystems.
type Store interface {
	Hosts(ctx context.Context) HostStore
	Users(ctx context.Context) UserStore
	Countries(ctx context.Context) CountryStore
	RefreshTokens(ctx context.Context) RefreshTokenStore

	// RegisterHost persists a host together with its master user as one
	// atomic unit: both rows commit or neither does.
	RegisterHost(ctx context.Context, h *Host, master *User) error
}

// HostStore manages host organizations.
type HostStore interface {
	Create(ctx context.Context, h *Host) error
	Find(ctx context.Context, id string) (*Host, error)
	FindByHandle(ctx context.Context, handle string) (*Host, error)
}

// UserStore manages host users.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListByHost(ctx context.Context, hostID string) ([]*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// CountryStore manages the country catalog.
type CountryStore interface {
	Create(ctx context.Context, c *Country) error
	Find(ctx context.Context, code string) (*Country, error)
	List(ctx context.Context) ([]*Country, error)
}

// RefreshTokenStore manages the refresh token ledger.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, token string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, token string) error
	MarkRevokedByUser(ctx context.Context, userID string) error
	Delete(ctx context.Context, token string) error
}
