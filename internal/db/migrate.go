package db

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sql/0001_schema.sql
var schemaSQL string

// Migrate materializes the schema. Every statement is IF NOT EXISTS, so
// running it on an already-migrated database is a no-op.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
