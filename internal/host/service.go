package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"valetpark.org/internal/ids"
)

// Service provides host registration and user management on top of Store.
type Service struct {
	store      Store
	now        func() time.Time
	bcryptCost int
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithBcryptCost overrides the bcrypt cost used when hashing passwords.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("host: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegistrationInput carries the host fields plus its first (master) user.
type RegistrationInput struct {
	HostName      string `json:"host_name"`
	HostType      Type   `json:"host_type"`
	HostEmail     string `json:"host_email"`
	Handle        string `json:"handle"`
	ContactNumber string `json:"contact_number"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	CountryCode   string `json:"country_code"`
	Website       string `json:"website"`

	MasterFirstName   string `json:"master_first_name"`
	MasterMiddleName  string `json:"master_middle_name"`
	MasterLastName    string `json:"master_last_name"`
	MasterPassword    string `json:"master_password"`
	MasterPhoneNumber string `json:"master_phone_number"`
	Designation       string `json:"designation"`
}

func (in *RegistrationInput) validate() error {
	in.HostName = strings.TrimSpace(in.HostName)
	in.Handle = strings.TrimSpace(strings.ToLower(in.Handle))
	in.HostEmail = strings.TrimSpace(strings.ToLower(in.HostEmail))
	in.MasterFirstName = strings.TrimSpace(in.MasterFirstName)

	switch {
	case in.HostName == "":
		return fmt.Errorf("%w: host name is required", ErrInvalidInput)
	case !in.HostType.Valid():
		return fmt.Errorf("%w: unsupported host type %q", ErrInvalidInput, in.HostType)
	case in.Handle == "":
		return fmt.Errorf("%w: handle is required", ErrInvalidInput)
	case in.HostEmail == "" || !strings.Contains(in.HostEmail, "@"):
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	case strings.TrimSpace(in.ContactNumber) == "":
		return fmt.Errorf("%w: contact number is required", ErrInvalidInput)
	case in.MasterFirstName == "":
		return fmt.Errorf("%w: master first name is required", ErrInvalidInput)
	case in.MasterPassword == "":
		return fmt.Errorf("%w: master password is required", ErrInvalidInput)
	}
	return nil
}

// Register creates a host and its master user atomically. The master user
// gets the HOST_MASTER role and the host's handle as username.
func (s *Service) Register(ctx context.Context, in RegistrationInput) (*Host, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.Hosts(ctx).FindByHandle(ctx, in.Handle); err == nil {
		return nil, ErrHostExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.Users(ctx).FindByUsername(ctx, in.Handle); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.MasterPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	h := &Host{
		ID:            ids.New(),
		Type:          in.HostType,
		Name:          in.HostName,
		Handle:        in.Handle,
		Email:         in.HostEmail,
		AddressLine1:  in.AddressLine1,
		AddressLine2:  in.AddressLine2,
		City:          in.City,
		State:         in.State,
		PostalCode:    in.PostalCode,
		CountryCode:   in.CountryCode,
		ContactNumber: in.ContactNumber,
		Website:       in.Website,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	master := &User{
		ID:            ids.New(),
		HostID:        h.ID,
		Role:          RoleMaster,
		Username:      in.Handle,
		Email:         in.HostEmail,
		PasswordHash:  hash,
		FirstName:     in.MasterFirstName,
		MiddleName:    in.MasterMiddleName,
		LastName:      in.MasterLastName,
		Designation:   in.Designation,
		ContactNumber: in.MasterPhoneNumber,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.RegisterHost(ctx, h, master); err != nil {
		return nil, err
	}
	return h, nil
}

// GetHost returns a host after verifying the actor belongs to it.
func (s *Service) GetHost(ctx context.Context, actor *User, hostID string) (*Host, error) {
	if err := s.requireMembership(actor, hostID); err != nil {
		return nil, err
	}
	return s.store.Hosts(ctx).Find(ctx, hostID)
}

// UserInput carries the fields for a subordinate user.
type UserInput struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          Role   `json:"role"`
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	Designation   string `json:"designation"`
	ContactNumber string `json:"contact_number"`
}

// CreateUser adds a user under hostID. The actor must belong to that host
// and hold a managing role. Masters cannot be created this way; the single
// master comes from registration.
func (s *Service) CreateUser(ctx context.Context, actor *User, hostID string, in UserInput) (*User, error) {
	if err := s.requireMembership(actor, hostID); err != nil {
		return nil, err
	}
	if !actor.Role.CanManageUsers() {
		return nil, ErrUnauthorized
	}

	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Role == "" {
		in.Role = RoleEmployee
	}
	switch {
	case in.Username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	case strings.TrimSpace(in.FirstName) == "":
		return nil, fmt.Errorf("%w: first name is required", ErrInvalidInput)
	case !in.Role.Valid() || in.Role == RoleMaster:
		return nil, fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.store.Users(ctx).FindByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &User{
		ID:            ids.New(),
		HostID:        hostID,
		Role:          in.Role,
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		MiddleName:    in.MiddleName,
		LastName:      in.LastName,
		Designation:   in.Designation,
		ContactNumber: in.ContactNumber,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Users(ctx).Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns every user of hostID. Membership-gated.
func (s *Service) ListUsers(ctx context.Context, actor *User, hostID string) ([]*User, error) {
	if err := s.requireMembership(actor, hostID); err != nil {
		return nil, err
	}
	return s.store.Users(ctx).ListByHost(ctx, hostID)
}

// UserByUsername loads an active user by username.
func (s *Service) UserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.store.Users(ctx).FindByUsername(ctx, username)
}

// ChangePassword updates userID's password. Only the account owner may
// change it, the current password must verify, and new/confirm must match.
func (s *Service) ChangePassword(ctx context.Context, actor *User, userID, current, newPassword, confirm string) error {
	if actor == nil || actor.ID != userID {
		return ErrUnauthorized
	}
	u, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return err
	}
	if u.HostID != actor.HostID {
		return ErrUnauthorized
	}
	if err := VerifyPassword(u.PasswordHash, current); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidInput)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	if newPassword != confirm {
		return fmt.Errorf("%w: new password and confirm password don't match", ErrInvalidInput)
	}
	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.store.Users(ctx).UpdatePassword(ctx, userID, hash)
}

// CreateCountry adds a country to the reference catalog.
func (s *Service) CreateCountry(ctx context.Context, c Country) (*Country, error) {
	c.Code = strings.TrimSpace(strings.ToUpper(c.Code))
	c.Name = strings.TrimSpace(c.Name)
	if c.Code == "" || c.Name == "" {
		return nil, fmt.Errorf("%w: country code and name are required", ErrInvalidInput)
	}
	c.CreatedAt = s.now().UTC()
	if err := s.store.Countries(ctx).Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCountries returns the country catalog.
func (s *Service) ListCountries(ctx context.Context) ([]*Country, error) {
	return s.store.Countries(ctx).List(ctx)
}

func (s *Service) requireMembership(actor *User, hostID string) error {
	if actor == nil || strings.TrimSpace(hostID) == "" {
		return ErrUnauthorized
	}
	if actor.HostID != hostID {
		return ErrUnauthorized
	}
	return nil
}
