package pg

import (
	"strconv"
	"strings"

	"communeo.org/internal/scope"
)

// contentColumns maps the logical predicate field names onto content_items
// columns. Every adapter translating scope predicates must agree with
// scope.Eval on semantics.
var contentColumns = map[string]string{
	scope.FieldVisibility: "visibility",
	scope.FieldCommuneID:  "commune_id",
	scope.FieldAudience:   "audience_communes",
	scope.FieldStartAt:    "start_at",
	scope.FieldEndAt:      "end_at",
	scope.FieldAuthorID:   "author_id",
}

// predSQL renders a scope predicate as a SQL boolean expression with
// positional placeholders starting after offset.
type predSQL struct {
	cols   map[string]string
	offset int
	args   []any
}

// renderPred translates p into (expression, args). A nil predicate renders as
// "true". Placeholders start at $offset+1.
func renderPred(p scope.Pred, cols map[string]string, offset int) (string, []any) {
	b := &predSQL{cols: cols, offset: offset}
	expr := b.render(p)
	return expr, b.args
}

func (b *predSQL) render(p scope.Pred) string {
	switch v := p.(type) {
	case nil:
		return "true"
	case scope.And:
		if len(v) == 0 {
			return "true"
		}
		parts := make([]string, 0, len(v))
		for _, child := range v {
			parts = append(parts, b.render(child))
		}
		return "(" + strings.Join(parts, " and ") + ")"
	case scope.Or:
		if len(v) == 0 {
			return "false"
		}
		parts := make([]string, 0, len(v))
		for _, child := range v {
			parts = append(parts, b.render(child))
		}
		return "(" + strings.Join(parts, " or ") + ")"
	case scope.Eq:
		col, ok := b.cols[v.Field]
		if !ok {
			return "false"
		}
		return col + " = " + b.placeholder(v.Value)
	case scope.In:
		col, ok := b.cols[v.Field]
		if !ok || len(v.Values) == 0 {
			return "false"
		}
		ph := make([]string, 0, len(v.Values))
		for _, val := range v.Values {
			ph = append(ph, b.placeholder(val))
		}
		return col + " in (" + strings.Join(ph, ", ") + ")"
	case scope.Overlaps:
		col, ok := b.cols[v.Field]
		if !ok || len(v.Values) == 0 {
			return "false"
		}
		ph := make([]string, 0, len(v.Values))
		for _, val := range v.Values {
			ph = append(ph, b.placeholder(val))
		}
		// audience sets are stored as jsonb string arrays
		return "exists (select 1 from jsonb_array_elements_text(" + col + ") elem where elem in (" + strings.Join(ph, ", ") + "))"
	case scope.NullOrBefore:
		col, ok := b.cols[v.Field]
		if !ok {
			return "false"
		}
		return "(" + col + " is null or " + col + " <= " + b.placeholder(v.At) + ")"
	case scope.NullOrAfter:
		col, ok := b.cols[v.Field]
		if !ok {
			return "false"
		}
		return "(" + col + " is null or " + col + " >= " + b.placeholder(v.At) + ")"
	default:
		return "false"
	}
}

func (b *predSQL) placeholder(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(b.offset+len(b.args))
}
