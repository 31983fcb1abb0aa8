// Package store wraps the relational database that holds the bank table.
// A single Store is opened per run and shared by the load and report stages.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/seenimoa/bankcap/pkg/models"
)

// DefaultDriver is the database/sql driver name used when none is configured.
const DefaultDriver = "sqlite3"

// insertBatchSize bounds rows per INSERT to stay under SQLite's bound-variable limit.
const insertBatchSize = 100

// ErrInvalidTableName is returned for table names that are not plain identifiers.
var ErrInvalidTableName = errors.New("invalid table name")

// ErrNoStore is returned by OpenExisting when the database file is absent.
var ErrNoStore = errors.New("store does not exist")

// ErrNotReadOnly is returned when a report statement would modify the store.
var ErrNotReadOnly = errors.New("statement is not read-only")

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QueryError reports a failed read query.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Store is a handle to the relational database.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s %q: %w", driver, dsn, err)
	}
	// One connection: the run is sequential and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// OpenExisting is Open for callers that only read. A SQLite DSN naming a
// missing file fails with ErrNoStore instead of creating an empty database.
func OpenExisting(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "" || driver == DefaultDriver {
		if path, ok := sqlitePath(dsn); ok {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (run the job first)", ErrNoStore, path)
			}
		}
	}
	return Open(ctx, driver, dsn)
}

// sqlitePath extracts the file path from a SQLite DSN. In-memory databases
// report false.
func sqlitePath(dsn string) (string, bool) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return "", false
	}
	return path, true
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ValidateTableName reports whether name is safe to interpolate into SQL.
func ValidateTableName(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

// createTableSQL returns the DDL for table; name is TEXT, the figures REAL.
func createTableSQL(table string) string {
	cols := models.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "REAL"
		if c == models.ColName {
			typ = "TEXT"
		}
		defs[i] = c + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
}

func insertSQL(table string) string {
	cols := models.Columns()
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(named, ", "))
}

// ReplaceTable drops table if it exists, recreates it and inserts rows in
// order, all in one transaction. On error the previous table is left intact.
func (s *Store) ReplaceTable(ctx context.Context, table string, rows []models.AugmentedRow) (err error) {
	if err := ValidateTableName(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err = tx.ExecContext(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	stmt := insertSQL(table)
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err = tx.NamedExecContext(ctx, stmt, rows[start:end]); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadTable returns every row of table in insertion order.
func (s *Store) LoadTable(ctx context.Context, table string) ([]models.AugmentedRow, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(models.Columns(), ", "), table)

	var rows []models.AugmentedRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, &QueryError{Query: q, Err: err}
	}
	return rows, nil
}

// Query runs a read-only statement and returns its full result set.
// The statement runs with query_only set inside a transaction that is always
// rolled back, so a write hidden behind a WITH clause fails and changes nothing.
func (s *Store) Query(ctx context.Context, query string) (*models.ResultSet, error) {
	if !isReadOnly(query) {
		return nil, &QueryError{Query: query, Err: ErrNotReadOnly}
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	// The pragma outlives the transaction; the pooled connection is reused for writes.
	defer conn.ExecContext(context.Background(), "PRAGMA query_only = OFF") //nolint:errcheck

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: readOnlyCause(err)}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	rs := &models.ResultSet{Query: query, Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, &QueryError{Query: query, Err: readOnlyCause(err)}
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: readOnlyCause(err)}
	}
	return rs, nil
}

// readOnlyCause marks SQLite's read-only rejection with ErrNotReadOnly.
func readOnlyCause(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrReadonly {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	return err
}

func isReadOnly(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return !strings.Contains(strings.TrimRight(strings.TrimSpace(query), ";"), ";")
	}
	return false
}
