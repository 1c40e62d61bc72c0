package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema creates the ledger tables read by ledger_repo. Every statement is
// idempotent.
//
//go:embed schema.sql
var Schema string

// ApplySchema runs Schema in one round trip.
func ApplySchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
