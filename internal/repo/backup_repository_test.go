package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"BlobKeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_StoreBackup_RoundTrip(t *testing.T) {
	s := newTestStore(t, testLimits())
	ctx := context.Background()
	now := int64(1700000000)
	user := hexID("a1")
	key := hexID("b1")

	require.NoError(t, s.RegisterUser(ctx, user, now))

	updatedAt, err := s.StoreBackup(ctx, user, key, "encrypted-payload", now)
	require.NoError(t, err)
	assert.Equal(t, now, updatedAt)

	b, err := s.GetBackup(ctx, user, key)
	require.NoError(t, err)
	assert.Equal(t, "encrypted-payload", b.Data)
	assert.Equal(t, user, b.UserID)
	assert.Equal(t, now, b.CreatedAt)
	assert.Equal(t, now, b.UpdatedAt)
}

func TestStore_StoreBackup_UpsertKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t, testLimits())
	ctx := context.Background()
	now := int64(1700000000)
	user := hexID("a1")
	key := hexID("b1")

	require.NoError(t, s.RegisterUser(ctx, user, now))
	_, err := s.StoreBackup(ctx, user, key, "v1", now)
	require.NoError(t, err)

	later := now + 120
	updatedAt, err := s.StoreBackup(ctx, user, key, "v2", later)
	require.NoError(t, err)
	assert.Equal(t, later, updatedAt)

	b, err := s.GetBackup(ctx, user, key)
	require.NoError(t, err)
	assert.Equal(t, "v2", b.Data)
	assert.Equal(t, now, b.CreatedAt, "created_at сохраняется при перезаписи")
	assert.Equal(t, later, b.UpdatedAt)
}

func TestStore_StoreBackup_UnknownOwner(t *testing.T) {
	s := newTestStore(t, testLimits())
	ctx := context.Background()

	_, err := s.StoreBackup(ctx, hexID("a1"), hexID("b1"), "data", 1700000000)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_GetBackup(t *testing.T) {
	s := newTestStore(t, testLimits())
	ctx := context.Background()
	now := int64(1700000000)
	user := hexID("a1")
	key := hexID("b1")

	require.NoError(t, s.RegisterUser(ctx, user, now))
	_, err := s.StoreBackup(ctx, user, key, "data", now)
	require.NoError(t, err)

	t.Run("unknown key", func(t *testing.T) {
		_, err := s.GetBackup(ctx, user, hexID("ffff"))
		assert.ErrorIs(t, err, ErrBackupNotFound)
	})

	t.Run("owner mismatch reported as not found", func(t *testing.T) {
		_, err := s.GetBackup(ctx, hexID("a2"), key)
		assert.ErrorIs(t, err, ErrBackupNotFound)
	})
}

func TestStore_StoreBackup_RateLimit(t *testing.T) {
	s := newTestStore(t, testLimits())
	ctx := context.Background()
	now := int64(1700000000)
	user := hexID("a1")

	require.NoError(t, s.RegisterUser(ctx, user, now))

	// ровно 5 бэкапов в течение часа проходят
	for i := 0; i < 5; i++ {
		_, err := s.StoreBackup(ctx, user, hexID(fmt.Sprintf("b%d", i)), "data", now+int64(i))
		require.NoError(t, err, "backup %d", i)
	}

	// шестой — отказ без мутации
	_, err := s.StoreBackup(ctx, user, hexID("b6"), "data", now+10)
	assert.ErrorIs(t, err, model.ErrRateLimited)
	_, err = s.GetBackup(ctx, user, hexID("b6"))
	assert.ErrorIs(t, err, ErrBackupNotFound, "отклонённый бэкап не должен был записаться")

	// после истечения часового окна — снова можно
	afterHour := now + model.HourWindowSecs + 1
	_, err = s.StoreBackup(ctx, user, hexID("b6"), "data", afterHour)
	assert.NoError(t, err)

	// лимиты других пользователей независимы
	other := hexID("a2")
	require.NoError(t, s.RegisterUser(ctx, other, now))
	_, err = s.StoreBackup(ctx, other, hexID("c1"), "data", now+10)
	assert.NoError(t, err)
}

// Конкурентные записи одного пользователя: при лимите L принимается не больше
// L запросов, гонка check-then-increment исключена write-локом транзакции.
func TestStore_StoreBackup_ConcurrentRateLimit(t *testing.T) {
	const attempts = 20
	limits := Limits{BackupsPerHour: 5, BackupsPerDay: 50}
	s := newTestStore(t, limits)
	ctx := context.Background()
	now := int64(1700000000)
	user := hexID("a1")

	require.NoError(t, s.RegisterUser(ctx, user, now))

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.StoreBackup(ctx, user, hexID(fmt.Sprintf("b%d", i)), "data", now)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	accepted, limited := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case assert.ErrorIs(t, err, model.ErrRateLimited):
			limited++
		}
	}
	assert.Equal(t, int(limits.BackupsPerHour), accepted)
	assert.Equal(t, attempts-int(limits.BackupsPerHour), limited)
}

// Записи переживают перезапуск процесса: bbolt — единственный механизм durability.
func TestStore_PersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	now := int64(1700000000)
	path := filepath.Join(t.TempDir(), "blobkeeper.db")
	user := hexID("a1")
	key := hexID("b1")

	s, err := NewStore(path, testLimits(), 4)
	require.NoError(t, err)
	require.NoError(t, s.RegisterUser(ctx, user, now))
	_, err = s.StoreBackup(ctx, user, key, "payload", now)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewStore(path, testLimits(), 4)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	b, err := s2.GetBackup(ctx, user, key)
	require.NoError(t, err)
	assert.Equal(t, "payload", b.Data)
	assert.ErrorIs(t, s2.RegisterUser(ctx, user, now), ErrUserExists)
}
