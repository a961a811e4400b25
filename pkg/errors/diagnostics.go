package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	sqlStateUniqueViolation = "23505"
	sqliteUniquePrefix      = "UNIQUE constraint failed: "
)

// Diagnostics is the storage detail behind an error. It is logged, never
// returned to clients.
type Diagnostics struct {
	Message    string
	Code       Code
	Chain      []string
	Driver     string
	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	unique     bool
}

// Diagnose walks the error chain and extracts postgres (pgx or lib/pq) or
// sqlite details. Sqlite unique failures get a postgres-style
// "<table>_<column>_key" constraint name so callers can match either driver.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Driver = DriverPostgres
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
		d.unique = pgxErr.Code == sqlStateUniqueViolation
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Driver = DriverPostgres
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
		d.unique = d.SQLState == sqlStateUniqueViolation
		return d
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.Driver = DriverSQLite
		d.SQLState = fmt.Sprintf("%d", int(liteErr.ExtendedCode))
		d.Detail = liteErr.Error()
		d.unique = liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		if d.unique {
			d.Table, d.Column, d.Constraint = parseSQLiteUnique(liteErr.Error())
		}
		return d
	}

	// Drivers wrapped with %v lose their type; the sqlite text is stable.
	if idx := strings.Index(d.Message, sqliteUniquePrefix); idx >= 0 {
		d.Driver = DriverSQLite
		d.unique = true
		d.Table, d.Column, d.Constraint = parseSQLiteUnique(d.Message[idx:])
	}
	return d
}

// UniqueViolation reports whether the underlying driver rejected a duplicate key.
func (d Diagnostics) UniqueViolation() bool {
	return d.unique
}

// Fields flattens the non-empty diagnostics for structured logging.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{"error": d.Message}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("error_code", string(d.Code))
	add("db_driver", d.Driver)
	add("db_state", d.SQLState)
	add("db_constraint", d.Constraint)
	add("db_table", d.Table)
	add("db_column", d.Column)
	add("db_detail", d.Detail)
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	return fields
}

// parseSQLiteUnique reads "UNIQUE constraint failed: carts.email". Composite
// keys report only their first column.
func parseSQLiteUnique(msg string) (table, column, constraint string) {
	ref := strings.TrimSpace(strings.TrimPrefix(msg, sqliteUniquePrefix))
	ref, _, _ = strings.Cut(ref, ",")
	table, column, ok := strings.Cut(strings.TrimSpace(ref), ".")
	if !ok {
		return "", "", ""
	}
	return table, column, table + "_" + column + "_key"
}
