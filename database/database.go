package database

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/lib/pq"

	"github.com/reconquista/mailing-sync/failure"
)

const (
	SQLSERVER = "sqlserver"
	POSTGRES  = "postgres"
)

// DB is a single connection to the source database. It is not shared between runs.
type DB struct {
	driver string
	db     *sql.DB
}

// Connect opens and verifies a connection for the connection string. SQL Server is
// assumed unless the string is a PostgreSQL URL or keyword DSN.
func Connect(ctx context.Context, connString string) (*DB, error) {
	return open(ctx, Driver(connString), connString)
}

// Driver returns the database/sql driver name for the connection string.
func Driver(connString string) string {
	s := strings.ToLower(strings.TrimSpace(connString))

	switch {
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return POSTGRES

	case strings.HasPrefix(s, "sqlserver://"), strings.HasPrefix(s, "odbc:"):
		return SQLSERVER

	case !strings.Contains(s, ";") && keywords(s):
		return POSTGRES

	default:
		return SQLSERVER
	}
}

// keywords reports whether s looks like a libpq keyword/value DSN e.g. 'dbname=crm user=mailing'.
func keywords(s string) bool {
	for _, field := range strings.Fields(s) {
		if k, _, ok := strings.Cut(field, "="); ok {
			switch k {
			case "host", "hostaddr", "dbname", "user", "port", "sslmode":
				return true
			}
		}
	}

	return false
}

func open(ctx context.Context, driver, connString string) (*DB, error) {
	db, err := sql.Open(driver, connString)
	if err != nil {
		return nil, failure.New(failure.ErrConnection, "failed to open database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, failure.New(failure.ErrConnection, "failed to connect to database", describe(err))
	}

	return &DB{
		driver: driver,
		db:     db,
	}, nil
}

// Driver returns the database/sql driver used by the connection.
func (d *DB) Driver() string {
	return d.driver
}

// Close releases the connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}
