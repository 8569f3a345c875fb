package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates any missing tables. Every statement is idempotent.
func Migrate(ctx context.Context, gw Gateway) error {
	if _, err := gw.Execute(ctx, schemaSQL); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	return nil
}
