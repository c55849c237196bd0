package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_IgnoresKnownFingerprints(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	inserted, err := repo.InsertMany(ctx, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = repo.InsertMany(ctx, sampleRows())
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 2, repo.Len())
}

func TestMemoryRepository_FindByUser(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rows := sampleRows()
	// insert out of order
	_, err := repo.InsertMany(ctx, rows[1:])
	require.NoError(t, err)
	_, err = repo.InsertMany(ctx, rows[:1])
	require.NoError(t, err)

	got, err := repo.FindByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	none, err := repo.FindByUser(ctx, "user2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryRepository_Concurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.InsertMany(ctx, sampleRows())
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, total, "each fingerprint is inserted exactly once")
}
