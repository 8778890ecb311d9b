package authorization

// UserRole is an opaque role code issued by the identity provider.
type UserRole string

const (
	RoleSubcityNormal   UserRole = "SUBCITY_NORMAL"
	RoleSubcityApprover UserRole = "SUBCITY_APPROVER"
	RoleCityAdmin       UserRole = "CITY_ADMIN"
	RoleSuperAdmin      UserRole = "SUPER_ADMIN"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == RoleCityAdmin || r == RoleSuperAdmin
}

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID       uint
	Role         UserRole
	SubAuthority string
}

func (a Actor) IsZero() bool {
	return a.UserID == 0
}
