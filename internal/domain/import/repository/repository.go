// Package repository persists canonical transactions. Uniqueness is enforced
// on the fingerprint; inserting a known fingerprint is a silent no-op.
package repository

import (
	"context"

	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
)

// TransactionRepository is the persistence gateway of the pipeline.
type TransactionRepository interface {
	// InsertMany stores rows whose fingerprint is not yet known and returns
	// how many were newly inserted. Duplicates are never an error.
	InsertMany(ctx context.Context, rows []transaction.Transaction) (int, error)
	// FindByUser returns a user's rows ordered by date, then fingerprint.
	FindByUser(ctx context.Context, userID string) ([]transaction.Transaction, error)
}
