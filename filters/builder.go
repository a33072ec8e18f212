package filters

import (
	"strings"

	"github.com/uptrace/bun"
)

// Predicate is one WHERE condition. Expr only ever contains column names
// chosen by the caller; every user-supplied value travels in Args.
type Predicate struct {
	Expr string
	Args []interface{}
}

// Builder accumulates AND-combined predicates.
type Builder struct {
	preds []Predicate
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) add(expr string, args ...interface{}) *Builder {
	b.preds = append(b.preds, Predicate{Expr: expr, Args: args})
	return b
}

// Search adds a case-insensitive substring match OR-combined across columns.
func (b *Builder) Search(term string, columns ...string) *Builder {
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := likePattern(term)
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + ") LIKE ?" + likeEscape
		args[i] = pattern
	}
	expr := strings.Join(parts, " OR ")
	if len(columns) > 1 {
		expr = "(" + expr + ")"
	}
	return b.add(expr, args...)
}

// Contains adds a case-insensitive substring match on a single column.
func (b *Builder) Contains(column, sub string) *Builder {
	if sub == "" {
		return b
	}
	return b.add("LOWER("+column+") LIKE ?"+likeEscape, likePattern(sub))
}

// Range adds independent lower and upper bounds; either may be nil.
func (b *Builder) Range(column string, from, to *float64) *Builder {
	if from != nil {
		b.add(column+" >= ?", *from)
	}
	if to != nil {
		b.add(column+" <= ?", *to)
	}
	return b
}

// Flag constrains column to true only when on is set. Off means no constraint.
func (b *Builder) Flag(column string, on bool) *Builder {
	if !on {
		return b
	}
	return b.add(column+" = ?", true)
}

// Equal adds an exact match.
func (b *Builder) Equal(column string, v interface{}) *Builder {
	return b.add(column+" = ?", v)
}

// Predicates returns a copy of the accumulated predicates.
func (b *Builder) Predicates() []Predicate {
	out := make([]Predicate, len(b.preds))
	copy(out, b.preds)
	return out
}

// Where joins the predicates with AND and flattens their args in order.
// An empty builder yields an empty expression.
func (b *Builder) Where() (string, []interface{}) {
	parts := make([]string, len(b.preds))
	var args []interface{}
	for i, p := range b.preds {
		parts[i] = p.Expr
		args = append(args, p.Args...)
	}
	return strings.Join(parts, " AND "), args
}

// Apply adds each predicate to q as its own WHERE clause.
func (b *Builder) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, p := range b.preds {
		q = q.Where(p.Expr, p.Args...)
	}
	return q
}

// likeEscape names the escape character used by likePattern. A backslash
// would itself need escaping inside MySQL string literals.
const likeEscape = " ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s literally as a substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
