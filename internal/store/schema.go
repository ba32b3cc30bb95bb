package store

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"strings"
)

var (
	//go:embed schema/postgres.sql
	postgresSchema string

	//go:embed schema/sqlite.sql
	sqliteSchema string
)

// Migrate applies the embedded init script for the active dialect. Every
// statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	log.Printf("executing %s initialization script...", s.dialect)

	if s.pool != nil {
		if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
			return fmt.Errorf("failed to execute init sql: %w", err)
		}
		return nil
	}

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
