package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	mysqlRowIsReferenced = 1451 // delete/update of a parent row that still has children
	mysqlNoReferencedRow = 1452 // insert/update of a child row with a missing parent

	pgForeignKeyViolation = "23503"
)

// IsForeignKeyViolation reports whether err was raised by the storage layer
// because a foreign key constraint rejected the statement.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlRowIsReferenced || myErr.Number == mysqlNoReferencedRow
	}

	var bunPgErr pgdriver.Error
	if errors.As(err, &bunPgErr) {
		return bunPgErr.Field('C') == pgForeignKeyViolation
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgForeignKeyViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		// Without extended result codes only the primary code is reported.
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY")
	}

	return false
}
