package scope

import "time"

// VisibilityFilter builds the read predicate for a caller. keys is the
// resolved commune key set of the request (possibly empty), role the caller
// role, and enforceWindow whether the startAt/endAt display window applies
// (public surface: yes; panel: no, editors see inactive content).
//
// The returned predicate matches a record iff:
//   - visibility = global, or
//   - visibility = local and communeId ∈ keys, or
//   - visibility = custom and audienceCommunes intersects keys.
//
// A superadmin without commune context bypasses the commune clause entirely;
// every other caller without commune context sees global content only. The
// same tree is used for all content kinds.
func VisibilityFilter(keys []string, role Role, enforceWindow bool, now time.Time) Pred {
	var communeClause Pred
	switch {
	case role == RoleSuperadmin && len(keys) == 0:
		communeClause = nil
	case len(keys) == 0:
		communeClause = Eq{Field: FieldVisibility, Value: string(VisibilityGlobal)}
	default:
		communeClause = Or{
			Eq{Field: FieldVisibility, Value: string(VisibilityGlobal)},
			And{
				Eq{Field: FieldVisibility, Value: string(VisibilityLocal)},
				In{Field: FieldCommuneID, Values: keys},
			},
			And{
				Eq{Field: FieldVisibility, Value: string(VisibilityCustom)},
				Overlaps{Field: FieldAudience, Values: keys},
			},
		}
	}

	if !enforceWindow {
		return communeClause
	}
	window := WindowFilter(now)
	if communeClause == nil {
		return window
	}
	return And{communeClause, window}
}
