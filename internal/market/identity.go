package market

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Identity is the already-verified caller. It is embedded into orders
// (customer) and products (seller) as a display snapshot.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
	Role  Role   `json:"-"`
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Owns reports whether the caller is the owner behind email, or an admin.
func (id Identity) Owns(email string) bool {
	if id.IsAdmin() {
		return true
	}
	return id.Email != "" && strings.EqualFold(id.Email, email)
}
