package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates missing tables and indexes. It never alters existing ones.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
