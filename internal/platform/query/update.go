package query

import (
	"fmt"
	"strings"
)

// Update builds a partial UPDATE: only columns passed to Set appear in the
// statement, and the row id is always the final parameter.
type Update struct {
	table  string
	sets   []string
	args   []interface{}
	values int
}

// Set starts an UPDATE on table.
func Set(table string) *Update {
	return &Update{table: table}
}

func (u *Update) Set(col string, v interface{}) *Update {
	u.args = append(u.args, v)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", col, len(u.args)))
	u.values++
	return u
}

// SetRaw assigns an SQL expression such as NOW(). It does not count as a
// change for Empty.
func (u *Update) SetRaw(col, expr string) *Update {
	u.sets = append(u.sets, col+" = "+expr)
	return u
}

// Empty reports whether no value column was set.
func (u *Update) Empty() bool { return u.values == 0 }

// SQL renders the statement and its arguments.
func (u *Update) SQL(idCol string, id interface{}) (string, []interface{}) {
	args := append(append([]interface{}{}, u.args...), id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		u.table, strings.Join(u.sets, ", "), idCol, len(args)), args
}
