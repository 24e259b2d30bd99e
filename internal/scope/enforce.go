package scope

import "strings"

// Caller is the authorization-relevant slice of a request identity. CommuneKeys
// is the resolved key set of the caller's assigned commune and CommuneSlug its
// canonical write form; both are empty when no commune is assigned.
type Caller struct {
	ID          string
	Role        Role
	CommuneKeys []string
	CommuneSlug string
}

// Draft carries the scope-defining fields of a create or update request.
// Commune references must already be canonicalized before enforcement.
type Draft struct {
	Visibility Visibility
	CommuneID  string
	Audience   []string
}

// Record carries the persisted scope fields of an existing item.
type Record struct {
	AuthorID   string
	Visibility Visibility
	CommuneID  string
	Audience   []string
}

// AuthorizeCreate decides whether the caller may create content with the
// draft's scope, and normalizes the draft to the canonical form for its
// visibility (local ⇒ communeId only, custom ⇒ audience only, global ⇒
// neither). Disallowed explicit values are rejected, not overridden; an admin
// draft that omits the commune inherits the caller's own.
func AuthorizeCreate(c Caller, d *Draft) error {
	switch c.Role {
	case RoleSuperadmin:
		switch d.Visibility {
		case VisibilityLocal:
			if strings.TrimSpace(d.CommuneID) == "" {
				return ErrScopeMissing
			}
			d.Audience = nil
		case VisibilityCustom:
			if len(d.Audience) == 0 {
				return ErrScopeMissing
			}
			d.CommuneID = ""
		case VisibilityGlobal:
			d.CommuneID = ""
			d.Audience = nil
		default:
			return ErrInvalidInput
		}
		return nil

	case RoleAdmin:
		// Account misconfiguration: an admin without an assigned commune
		// cannot scope anything.
		if c.CommuneSlug == "" {
			return ErrScopeMissing
		}
		if d.Visibility != VisibilityLocal {
			return ErrForbidden
		}
		if len(d.Audience) != 0 {
			return ErrForbidden
		}
		if d.CommuneID != "" && !keyMatch(c.CommuneKeys, d.CommuneID) {
			return ErrForbidden
		}
		d.CommuneID = c.CommuneSlug
		return nil

	default:
		return ErrForbidden
	}
}

// AuthorizeMutate decides whether the caller may update or delete an existing
// record. Superadmins are unrestricted. Admins must both own the record and
// still be inside its scope; either failure is rejected without distinguishing
// which.
func AuthorizeMutate(c Caller, rec Record) error {
	switch c.Role {
	case RoleSuperadmin:
		return nil
	case RoleAdmin:
		if rec.AuthorID == "" || rec.AuthorID != c.ID {
			return ErrForbidden
		}
		if !recordInScope(c, rec) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func recordInScope(c Caller, rec Record) bool {
	switch rec.Visibility {
	case VisibilityGlobal:
		return true
	case VisibilityLocal:
		return keyMatch(c.CommuneKeys, rec.CommuneID)
	case VisibilityCustom:
		for _, member := range rec.Audience {
			if keyMatch(c.CommuneKeys, member) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func keyMatch(keys []string, value string) bool {
	for _, k := range keys {
		if k == value {
			return true
		}
	}
	return false
}
