package scope

import (
	"fmt"
	"strings"
)

// Role is the closed, totally ordered set of caller roles. RolePublic is the
// implicit role of unauthenticated callers and never appears in storage.
type Role int

const (
	RolePublic Role = iota
	RoleUser
	RoleAdmin
	RoleSuperadmin
)

// ParseRole maps a stored role literal onto the enum. Unknown literals are an
// error, never coerced to a default.
func ParseRole(s string) (Role, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "superadmin":
		return RoleSuperadmin, nil
	default:
		return RolePublic, fmt.Errorf("unknown role %q: %w", s, ErrInvalidInput)
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	case RoleSuperadmin:
		return "superadmin"
	default:
		return "public"
	}
}

// AtLeast reports whether r ranks at or above min in the fixed
// user < admin < superadmin order.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// MarshalJSON encodes the role as its string literal.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON decodes a role literal, rejecting unknown values.
func (r *Role) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
