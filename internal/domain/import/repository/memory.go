package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
)

// MemoryRepository is an in-process TransactionRepository for the CLI and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]transaction.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]transaction.Transaction)}
}

func (r *MemoryRepository) InsertMany(_ context.Context, rows []transaction.Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, t := range rows {
		if _, ok := r.rows[t.Fingerprint]; ok {
			continue
		}
		r.rows[t.Fingerprint] = t
		inserted++
	}
	return inserted, nil
}

func (r *MemoryRepository) FindByUser(_ context.Context, userID string) ([]transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []transaction.Transaction
	for _, t := range r.rows {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

// Len returns the number of stored rows across all users.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
