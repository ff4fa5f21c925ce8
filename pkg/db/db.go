// Package db mirrors dictionary sources into SQLite.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// InitDB applies the embedded schema in a single transaction. Statements
// are idempotent, so it is safe to call on an existing database.
func InitDB(conn *sql.DB) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for i, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: statement %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
