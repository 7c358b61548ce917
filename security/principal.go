package security

type Role string

const (
	RoleDriver     Role = "driver"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleClient     Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleAdmin, RoleSuperAdmin, RoleClient:
		return true
	}
	return false
}

// Principal is the authenticated caller. It is passed explicitly to every service
// operation.
type Principal struct {
	UserID   string
	Email    string
	Name     string
	Role     Role
	ClientID string
}

// IsAdmin is true for admins and super admins.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}

// CanAccessTimesheet reports whether the caller may read or edit a timesheet owned by userID.
func (p Principal) CanAccessTimesheet(userID string) bool {
	return p.IsAdmin() || (p.Role == RoleDriver && p.UserID == userID)
}

// DisplayName is used in audit entries.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}
