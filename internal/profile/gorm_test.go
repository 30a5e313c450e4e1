package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"spelling-hive/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgresStore(t *testing.T) *GormStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("hive"),
		postgres.WithUsername("hive"),
		postgres.WithPassword("hive"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("skipping test; postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	conn, err := db.Open(dsn, db.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return NewGormStore(conn)
}

func TestGormStoreCountersAndTitle(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	p, err := store.Ensure(ctx, "user-1", "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.DisplayName)

	again, err := store.Ensure(ctx, "user-1", "someone-else")
	require.NoError(t, err)
	assert.Equal(t, "ada", again.DisplayName)

	require.NoError(t, store.ApplyCorrectAnswer(ctx, "user-1", 8))
	require.NoError(t, store.ApplyWin(ctx, "user-1"))

	p, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Corrects)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 8, p.Nectar)
	assert.Equal(t, 8, p.LifetimeNectar)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.ApplyWin(ctx, "missing"), ErrNotFound)
}

func TestGormStoreEnsureRace(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	const callers = 8
	start := make(chan struct{})
	profiles := make([]Profile, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			profiles[i], errs[i] = store.Ensure(ctx, "racer", "bee")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "racer", profiles[i].ID)
		assert.Equal(t, "bee", profiles[i].DisplayName)
	}
	stored, err := store.Get(ctx, "racer")
	require.NoError(t, err)
	assert.Zero(t, stored.Corrects)
}
