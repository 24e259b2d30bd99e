package scope

import "time"

// Logical field names shared by every scoped content kind. Store adapters map
// them onto their own column names; the in-memory evaluator reads them through
// the Doc interface.
const (
	FieldVisibility = "visibility"
	FieldCommuneID  = "communeId"
	FieldAudience   = "audienceCommunes"
	FieldStartAt    = "startAt"
	FieldEndAt      = "endAt"
	FieldAuthorID   = "authorId"
)

// Pred is an abstract query predicate over scoped content fields. A nil Pred
// matches every record.
type Pred interface {
	pred()
}

// And matches when every child matches.
type And []Pred

// Or matches when at least one child matches.
type Or []Pred

// Eq matches a scalar field against a single value.
type Eq struct {
	Field string
	Value string
}

// In matches a scalar field against a set of values.
type In struct {
	Field  string
	Values []string
}

// Overlaps matches a set-valued field that shares at least one element with
// Values.
type Overlaps struct {
	Field  string
	Values []string
}

// NullOrBefore matches when the instant field is absent or at/before At.
type NullOrBefore struct {
	Field string
	At    time.Time
}

// NullOrAfter matches when the instant field is absent or at/after At.
type NullOrAfter struct {
	Field string
	At    time.Time
}

func (And) pred()          {}
func (Or) pred()           {}
func (Eq) pred()           {}
func (In) pred()           {}
func (Overlaps) pred()     {}
func (NullOrBefore) pred() {}
func (NullOrAfter) pred()  {}

// Doc exposes the logical fields of a record to the in-memory evaluator.
type Doc interface {
	// Str returns the scalar value of a field, or "".
	Str(field string) string
	// Set returns the set value of a field, or nil.
	Set(field string) []string
	// Instant returns the value of a nullable instant field.
	Instant(field string) (time.Time, bool)
}

// Eval applies a predicate to a single document. Store adapters translate the
// same tree to their query language; both evaluations must agree.
func Eval(p Pred, d Doc) bool {
	switch v := p.(type) {
	case nil:
		return true
	case And:
		for _, child := range v {
			if !Eval(child, d) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range v {
			if Eval(child, d) {
				return true
			}
		}
		return false
	case Eq:
		return d.Str(v.Field) == v.Value
	case In:
		got := d.Str(v.Field)
		for _, want := range v.Values {
			if got == want {
				return true
			}
		}
		return false
	case Overlaps:
		members := d.Set(v.Field)
		for _, m := range members {
			for _, want := range v.Values {
				if m == want {
					return true
				}
			}
		}
		return false
	case NullOrBefore:
		t, ok := d.Instant(v.Field)
		return !ok || !t.After(v.At)
	case NullOrAfter:
		t, ok := d.Instant(v.Field)
		return !ok || !t.Before(v.At)
	default:
		return false
	}
}
