// internal/db/db.go
package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// DriverFor picks the database/sql driver for a DSN: postgres URLs go to
// lib/pq, anything else is treated as a SQLite path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// Open connects, pings and applies the schema.
func Open(dsn string, log logrus.FieldLogger) (*sqlx.DB, error) {
	driver := DriverFor(dsn)
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// in-memory databases live per connection
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := Migrate(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if log != nil {
		log.WithField("driver", driver).Info("✅ Connected to database")
	}
	return conn, nil
}

// Migrate creates the tables used by the SQL mirror and the push log.
func Migrate(conn *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if conn.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mirror_snapshots (
			key        TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS status_pushes (
			id          ` + idColumn + `,
			customer_id TEXT NOT NULL,
			status      TEXT NOT NULL,
			notes       TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL,
			last_error  TEXT NOT NULL DEFAULT '',
			attempts    INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
