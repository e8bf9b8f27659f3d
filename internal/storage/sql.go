package storage

import (
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

func QuestionMark(int) string { return "?" }

func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// SelectSQL returns "SELECT <columns> FROM <table>".
func SelectSQL(e core.Entity) string {
	return "SELECT " + strings.Join(e.Columns(), ", ") + " FROM " + e.Table
}

// InsertSQL returns an INSERT over every column of the entity.
func InsertSQL(e core.Entity, ph Placeholder) string {
	cols := e.Columns()
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i + 1)
	}
	return "INSERT INTO " + e.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

// UpdateSQL returns an UPDATE of the updatable columns keyed by id, and by
// user_id for owned entities. Arguments: updatable values, id, user id.
func UpdateSQL(e core.Entity, ph Placeholder) string {
	cols := e.UpdatableColumns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = " + ph(i+1)
	}
	n := len(cols) + 1
	q := "UPDATE " + e.Table + " SET " + strings.Join(sets, ", ") + " WHERE id = " + ph(n)
	if e.Owned {
		q += " AND user_id = " + ph(n+1)
	}
	return q
}

// InsertArgs lays out the arguments for InsertSQL. createdAt is passed in the
// representation the dialect stores.
func InsertArgs(e core.Entity, id, userID string, fields map[string]string, createdAt any) []any {
	args := []any{id}
	if e.Owned {
		args = append(args, userID)
	}
	args = append(args, e.Values(fields)...)
	return append(args, createdAt)
}

// UpdateArgs lays out the arguments for UpdateSQL.
func UpdateArgs(e core.Entity, id, userID string, fields map[string]string) []any {
	args := append(e.UpdatableValues(fields), id)
	if e.Owned {
		args = append(args, userID)
	}
	return args
}

// Row is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// Record is a scanned entity row before conversion into a core type.
type Record struct {
	ID     string
	UserID string
	Fields map[string]string
}

// ScanRecord reads a row selected with SelectSQL. createdAt receives the
// dialect's timestamp representation.
func ScanRecord(e core.Entity, row Row, createdAt any) (Record, error) {
	var rec Record
	values := make([]string, len(e.Fields))
	dest := []any{&rec.ID}
	if e.Owned {
		dest = append(dest, &rec.UserID)
	}
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, createdAt)
	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}
	rec.Fields = e.Scan(values)
	return rec, nil
}
