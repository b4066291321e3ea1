package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
    "github.com/ncruces/go-sqlite3"
)

// Dialect names the SQL engine behind a *sql.DB.  Queries are written in
// the common subset of MySQL and SQLite; the dialect only decides row
// locking and how constraint errors are recognised.
type Dialect string

const (
    MySQL  Dialect = "mysql"
    SQLite Dialect = "sqlite"
)

// forUpdate is appended to SELECTs that must lock the row for the rest of
// the transaction.  SQLite has no row locks; its transactions are opened
// with an immediate write lock instead.
func (d Dialect) forUpdate() string {
    if d == MySQL {
        return " FOR UPDATE"
    }
    return ""
}

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err came from a unique index.
func isUniqueViolation(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == mysqlDuplicateEntry
    }
    return errors.Is(err, sqlite3.CONSTRAINT_UNIQUE)
}

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can
// run inside or outside a transaction.
type querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}
