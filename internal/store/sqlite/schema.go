package sqlite

import (
	"database/sql"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var ddlFile string

// EnsureSchema applies the embedded DDL. Statements are idempotent
// (CREATE ... IF NOT EXISTS) so this is safe to run on every start.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range ddlStatements() {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ddlStatements splits schema.sql on semicolons and trims whitespace.
func ddlStatements() []string {
	parts := strings.Split(ddlFile, ";")
	var out []string
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
