package host

import "time"

// Type classifies a host organization.
type Type string

const (
	TypeIndividual   Type = "individual"
	TypeOrganization Type = "organization"
)

// Valid reports whether t is one of the known host types.
func (t Type) Valid() bool {
	return t == TypeIndividual || t == TypeOrganization
}

// Role is the closed set of user roles. The scope a role grants is derived
// in the auth package; roles themselves are not user-editable.
type Role string

const (
	RoleMaster   Role = "HOST_MASTER"
	RoleAdmin    Role = "HOST_ADMIN"
	RoleEmployee Role = "HOST_EMPLOYEE"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMaster || r == RoleAdmin || r == RoleEmployee
}

// CanManageUsers reports whether the role may create or administer other
// users of the same host.
func (r Role) CanManageUsers() bool {
	return r == RoleMaster || r == RoleAdmin
}

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Host is a registered organization (or individual operator) that owns a
// set of users.
type Host struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	Name          string    `json:"name"`
	Handle        string    `json:"handle"`
	Email         string    `json:"email"`
	AddressLine1  string    `json:"address_line1,omitempty"`
	AddressLine2  string    `json:"address_line2,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	CountryCode   string    `json:"country_code,omitempty"`
	ContactNumber string    `json:"contact_number"`
	Website       string    `json:"website,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// User is a member account belonging to exactly one host.
type User struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Role          Role      `json:"role"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	MiddleName    string    `json:"middle_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Designation   string    `json:"designation,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Country is reference data for host and user addresses.
type Country struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Nationality string    `json:"nationality,omitempty"`
	ISOCode     string    `json:"iso_code,omitempty"`
	DialCode    string    `json:"dial_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RefreshToken is a persisted ledger entry for one login session. The
// opaque token string is the lookup key; revocation flips the flag without
// deleting the row.
type RefreshToken struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
