package repository

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"game-lobby-server/internal/config"
	"game-lobby-server/internal/model"
	"game-lobby-server/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container and returns a migrated repository.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*VirtualBotRepository, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	repo := NewVirtualBotRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return repo, cleanup
}

func setupSQLite(t *testing.T) *SQLiteVirtualBotStore {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "bots", "lobby.db"))
	require.NoError(t, err)

	store, err := NewSQLiteVirtualBotStore(ctx, sqlDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

// exerciseStore runs the same contract against every backend.
func exerciseStore(t *testing.T, store VirtualBotStore) {
	ctx := context.Background()

	rows, err := store.LoadAllVirtualBots(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name:              "Beta",
		State:             model.BotStateInGame,
		OnlineTicks:       42,
		TargetOnlineTicks: 100,
		TableID:           strPtr("table-1"),
		GameJoinTick:      7,
	}))
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name:              "Alpha",
		State:             model.BotStateOnlineIdle,
		OnlineTicks:       5,
		TargetOnlineTicks: 10,
	}))

	rows, err = store.LoadAllVirtualBots(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].Name)
	assert.Nil(t, rows[0].TableID)
	assert.Equal(t, "Beta", rows[1].Name)
	require.NotNil(t, rows[1].TableID)
	assert.Equal(t, "table-1", *rows[1].TableID)
	assert.Equal(t, int64(7), rows[1].GameJoinTick)
	assert.False(t, rows[1].UpdatedAt.IsZero())

	// upsert replaces the existing row
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name:              "Beta",
		State:             model.BotStateOffline,
		OnlineTicks:       0,
		TargetOnlineTicks: 100,
	}))
	beta, err := store.GetVirtualBot(ctx, "Beta")
	require.NoError(t, err)
	assert.Equal(t, model.BotStateOffline, beta.State)
	assert.Nil(t, beta.TableID)

	_, err = store.GetVirtualBot(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrVirtualBotNotFound)

	err = store.SaveVirtualBot(ctx, model.VirtualBotRow{Name: "Bad", State: "dancing"})
	assert.ErrorIs(t, err, ErrInvalidVirtualBot)
	err = store.SaveVirtualBot(ctx, model.VirtualBotRow{State: model.BotStateOffline})
	assert.ErrorIs(t, err, ErrInvalidVirtualBot)

	require.NoError(t, store.DeleteAllVirtualBots(ctx))
	rows, err = store.LoadAllVirtualBots(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestVirtualBotRepository_Postgres(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	exerciseStore(t, repo)
}

func TestSQLiteVirtualBotStore(t *testing.T) {
	exerciseStore(t, setupSQLite(t))
}

func TestSQLiteVirtualBotStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lobby.db")

	sqlDB, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	store, err := NewSQLiteVirtualBotStore(ctx, sqlDB)
	require.NoError(t, err)
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name:  "Alpha",
		State: model.BotStateOnlineIdle,
	}))
	require.NoError(t, store.Close())

	sqlDB, err = db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	store, err = NewSQLiteVirtualBotStore(ctx, sqlDB)
	require.NoError(t, err)
	defer store.Close()

	row, err := store.GetVirtualBot(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, model.BotStateOnlineIdle, row.State)
}

func TestMemoryVirtualBotStore(t *testing.T) {
	exerciseStore(t, NewMemoryVirtualBotStore())
}

func TestMemoryVirtualBotStore_CopiesTableID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryVirtualBotStore()

	id := "table-1"
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name:    "Alpha",
		State:   model.BotStateInGame,
		TableID: &id,
	}))
	id = "changed"

	row, err := store.GetVirtualBot(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "table-1", *row.TableID)
}

func TestNewVirtualBotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := NewVirtualBotStore(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory}})
		require.NoError(t, err)
		assert.IsType(t, &MemoryVirtualBotStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewVirtualBotStore(ctx, &config.Config{Storage: config.StorageConfig{
			Driver:     config.StorageSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "lobby.db"),
		}})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteVirtualBotStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewVirtualBotStore(ctx, &config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
		assert.Error(t, err)
	})
}
