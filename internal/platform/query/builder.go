// Package query assembles parameterized list and update statements. Callers
// write clauses with ? placeholders; the builder numbers them $1..$n in the
// order they are added so filter arguments always precede LIMIT and OFFSET.
package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FilterKind selects how a request filter is compared.
type FilterKind int

const (
	FilterEq    FilterKind = iota // column = value
	FilterILike                   // column ILIKE %value%
)

// FilterSpec maps a query-string key to a column. Value converts the raw
// string for FilterEq, e.g. to the integer a numeric column expects; nil
// passes the string through.
type FilterSpec struct {
	Column string
	Kind   FilterKind
	Value  func(string) interface{}
}

// Int converts a numeric filter. Input that is not a number is passed on
// unchanged so the database rejects it.
func Int(s string) interface{} {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return n
}

// Builder accumulates a WHERE clause for a SELECT over one table or join.
type Builder struct {
	from    string
	cols    string
	where   []string
	args    []interface{}
	orderBy string
}

// New starts a builder. from may be a table or a join expression.
func New(from, cols string) *Builder {
	return &Builder{from: from, cols: cols}
}

// Where adds a clause joined with AND. Each ? in clause consumes one arg.
func (b *Builder) Where(clause string, args ...interface{}) *Builder {
	if n := strings.Count(clause, "?"); n != len(args) {
		panic(fmt.Sprintf("query: clause %q has %d placeholders but %d args", clause, n, len(args)))
	}
	b.where = append(b.where, number(clause, len(b.args)+1))
	b.args = append(b.args, args...)
	return b
}

// Eq adds column = v unless v is empty.
func (b *Builder) Eq(col string, v interface{}) *Builder {
	if isEmpty(v) {
		return b
	}
	return b.Where(col+" = ?", v)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ILike adds a case-insensitive substring match unless v is empty. % and _
// in v match themselves.
func (b *Builder) ILike(col, v string) *Builder {
	if v == "" {
		return b
	}
	return b.Where(col+" ILIKE ?", "%"+likeEscaper.Replace(v)+"%")
}

// Force adds column = v unconditionally. Used for visibility restrictions,
// which must never be dropped because a value looks empty.
func (b *Builder) Force(col string, v interface{}) *Builder {
	return b.Where(col+" = ?", v)
}

// Apply adds every filter that has a spec, in sorted key order so the
// generated SQL is stable. Unknown keys are ignored.
func (b *Builder) Apply(filters map[string]string, specs map[string]FilterSpec) *Builder {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if _, ok := specs[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		spec, raw := specs[k], filters[k]
		if raw == "" {
			continue
		}
		switch spec.Kind {
		case FilterILike:
			b.ILike(spec.Column, raw)
		default:
			var v interface{} = raw
			if spec.Value != nil {
				v = spec.Value(raw)
			}
			b.Eq(spec.Column, v)
		}
	}
	return b
}

// OrderBy sets the ORDER BY expression used by DataSQL.
func (b *Builder) OrderBy(expr string) *Builder {
	b.orderBy = expr
	return b
}

func (b *Builder) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// CountSQL returns the COUNT(*) statement over the same filters.
func (b *Builder) CountSQL() string {
	return "SELECT COUNT(*) FROM " + b.from + b.whereSQL()
}

// CountArgs returns the filter arguments only.
func (b *Builder) CountArgs() []interface{} {
	out := make([]interface{}, len(b.args))
	copy(out, b.args)
	return out
}

// DataSQL returns the paged SELECT. LIMIT and OFFSET are the last two
// placeholders.
func (b *Builder) DataSQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	sb.WriteString(b.whereSQL())
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}
	n := len(b.args)
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", n+1, n+2)
	return sb.String()
}

// DataArgs returns the filter arguments followed by limit and offset.
func (b *Builder) DataArgs(limit, offset int) []interface{} {
	return append(b.CountArgs(), limit, offset)
}

// number rewrites each ? in clause as $start, $start+1, ...
func number(clause string, start int) string {
	var sb strings.Builder
	idx := start
	for _, r := range clause {
		if r == '?' {
			fmt.Fprintf(&sb, "$%d", idx)
			idx++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
