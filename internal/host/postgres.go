package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// Open connects to Postgres with pool defaults suited to this workload.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Close() error { return s.db.Close() }

// DB exposes the handle for health probes.
func (s *PGStore) DB() *sql.DB { return s.db }

func (s *PGStore) Hosts(context.Context) HostStore        { return &hostStore{db: s.db} }
func (s *PGStore) Users(context.Context) UserStore        { return &userStore{db: s.db} }
func (s *PGStore) Countries(context.Context) CountryStore { return &countryStore{db: s.db} }
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}

// RegisterHost inserts host and master user in a single transaction.
func (s *PGStore) RegisterHost(ctx context.Context, h *Host, master *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertHostSQL,
		h.ID, h.Type, h.Name, h.Handle, h.Email,
		h.AddressLine1, h.AddressLine2, h.City, h.State, h.PostalCode,
		nullable(h.CountryCode), h.ContactNumber, h.Website, h.CreatedAt, h.UpdatedAt,
	); err != nil {
		return translateUniqueViolation(err)
	}
	if _, err := tx.ExecContext(ctx, insertUserSQL,
		master.ID, master.HostID, master.Role, master.Username, master.Email,
		master.PasswordHash, master.FirstName, master.MiddleName, master.LastName,
		master.Designation, master.ContactNumber, master.Status,
		master.CreatedAt, master.UpdatedAt,
	); err != nil {
		return translateUniqueViolation(err)
	}
	return tx.Commit()
}

const insertHostSQL = `insert into host(
	id, host_type, host_name, handle, email,
	address_line1, address_line2, city, state, postal_code,
	country_code, contact_number, website, created_at, updated_at)
	values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

const insertUserSQL = `insert into host_user(
	id, host_id, role, username, email,
	password_hash, first_name, middle_name, last_name,
	designation, contact_number, status, created_at, updated_at)
	values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

// Host store -----------------------------------------------------------

type hostStore struct{ db *sql.DB }

const selectHostSQL = `select id, host_type, host_name, handle, email,
	address_line1, address_line2, city, state, postal_code,
	coalesce(country_code, ''), contact_number, website, created_at, updated_at
	from host`

func (s *hostStore) Create(ctx context.Context, h *Host) error {
	_, err := s.db.ExecContext(ctx, insertHostSQL,
		h.ID, h.Type, h.Name, h.Handle, h.Email,
		h.AddressLine1, h.AddressLine2, h.City, h.State, h.PostalCode,
		nullable(h.CountryCode), h.ContactNumber, h.Website, h.CreatedAt, h.UpdatedAt,
	)
	return translateUniqueViolation(err)
}

func (s *hostStore) Find(ctx context.Context, id string) (*Host, error) {
	return scanHost(s.db.QueryRowContext(ctx, selectHostSQL+` where id=$1`, id))
}

func (s *hostStore) FindByHandle(ctx context.Context, handle string) (*Host, error) {
	return scanHost(s.db.QueryRowContext(ctx, selectHostSQL+` where handle=$1`, handle))
}

func scanHost(row *sql.Row) (*Host, error) {
	var h Host
	err := row.Scan(&h.ID, &h.Type, &h.Name, &h.Handle, &h.Email,
		&h.AddressLine1, &h.AddressLine2, &h.City, &h.State, &h.PostalCode,
		&h.CountryCode, &h.ContactNumber, &h.Website, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// User store -----------------------------------------------------------

type userStore struct{ db *sql.DB }

const selectUserSQL = `select id, host_id, role, username, email,
	password_hash, first_name, middle_name, last_name,
	designation, contact_number, status, created_at, updated_at
	from host_user`

func (s *userStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, insertUserSQL,
		u.ID, u.HostID, u.Role, u.Username, u.Email,
		u.PasswordHash, u.FirstName, u.MiddleName, u.LastName,
		u.Designation, u.ContactNumber, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	return translateUniqueViolation(err)
}

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUserSQL+` where id=$1`, id))
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		selectUserSQL+` where username=$1 and status=$2`, username, StatusActive))
}

func (s *userStore) ListByHost(ctx context.Context, hostID string) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		selectUserSQL+` where host_id=$1 and status=$2 order by created_at`, hostID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.HostID, &u.Role, &u.Username, &u.Email,
			&u.PasswordHash, &u.FirstName, &u.MiddleName, &u.LastName,
			&u.Designation, &u.ContactNumber, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update host_user set password_hash=$1, updated_at=now() where id=$2`,
		passwordHash, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.HostID, &u.Role, &u.Username, &u.Email,
		&u.PasswordHash, &u.FirstName, &u.MiddleName, &u.LastName,
		&u.Designation, &u.ContactNumber, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Country store --------------------------------------------------------

type countryStore struct{ db *sql.DB }

func (s *countryStore) Create(ctx context.Context, c *Country) error {
	_, err := s.db.ExecContext(ctx,
		`insert into country(code, name, nationality, iso_code, dial_code, created_at)
		 values($1,$2,$3,$4,$5,$6)`,
		c.Code, c.Name, c.Nationality, c.ISOCode, c.DialCode, c.CreatedAt)
	return translateUniqueViolation(err)
}

func (s *countryStore) Find(ctx context.Context, code string) (*Country, error) {
	var c Country
	err := s.db.QueryRowContext(ctx,
		`select code, name, nationality, iso_code, dial_code, created_at from country where code=$1`,
		code).Scan(&c.Code, &c.Name, &c.Nationality, &c.ISOCode, &c.DialCode, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *countryStore) List(ctx context.Context) ([]*Country, error) {
	rows, err := s.db.QueryContext(ctx,
		`select code, name, nationality, iso_code, dial_code, created_at from country order by code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.Code, &c.Name, &c.Nationality, &c.ISOCode, &c.DialCode, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

// Refresh token store --------------------------------------------------

type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Create(ctx context.Context, tok *RefreshToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_token(token, user_id, expires_at, revoked, created_at)
		 values($1,$2,$3,$4,$5)`,
		tok.Token, tok.UserID, tok.ExpiresAt, tok.Revoked, tok.CreatedAt)
	return err
}

func (s *refreshTokenStore) Find(ctx context.Context, token string) (*RefreshToken, error) {
	var tok RefreshToken
	err := s.db.QueryRowContext(ctx,
		`select token, user_id, expires_at, revoked, created_at from refresh_token where token=$1`,
		token).Scan(&tok.Token, &tok.UserID, &tok.ExpiresAt, &tok.Revoked, &tok.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tok, nil
}

func (s *refreshTokenStore) MarkRevoked(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_token set revoked=true where token=$1`, token)
	return err
}

func (s *refreshTokenStore) MarkRevokedByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_token set revoked=true where user_id=$1`, userID)
	return err
}

func (s *refreshTokenStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from refresh_token where token=$1`, token)
	return err
}

// helpers --------------------------------------------------------------

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

// translateUniqueViolation maps Postgres duplicate-key errors onto the
// package sentinels so callers can branch with errors.Is.
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "host_user"):
			return ErrUsernameExists
		case strings.Contains(pgErr.ConstraintName, "country"):
			return fmt.Errorf("%w: country already exists", ErrInvalidInput)
		default:
			return ErrHostExists
		}
	}
	return err
}
