package scope

import "time"

// WindowActive reports whether now falls inside the optional [startAt, endAt]
// display window. Bounds are inclusive; a nil bound is unbounded on that side.
// Callers must capture a single now per request and reuse it.
func WindowActive(startAt, endAt *time.Time, now time.Time) bool {
	if startAt != nil && startAt.After(now) {
		return false
	}
	if endAt != nil && endAt.Before(now) {
		return false
	}
	return true
}

// WindowFilter is the predicate form of WindowActive.
func WindowFilter(now time.Time) Pred {
	return And{
		NullOrBefore{Field: FieldStartAt, At: now},
		NullOrAfter{Field: FieldEndAt, At: now},
	}
}
