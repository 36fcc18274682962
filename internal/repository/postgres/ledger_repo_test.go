package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/repository/postgres"
	"github.com/dom/writing-assistant/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newCompletion(userID uuid.UUID, tokens int) *domain.Completion {
	return &domain.Completion{
		ID:        uuid.New(),
		UserID:    userID,
		Prompt:    "prompt",
		Answer:    "answer",
		Tokens:    tokens,
		Metadata:  datatypes.JSONMap{"model": "test"},
		CreatedAt: time.Now(),
	}
}

func TestLedgerRepository_Spend(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := postgres.NewLedgerRepository(db.DB)
	users := postgres.NewUserRepository(db.DB)
	completions := postgres.NewCompletionRepository(db.DB)
	ctx := context.Background()

	t.Run("debits and records together", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().WithTokens(500).Build(t, db.DB)

		remaining, err := ledger.Spend(ctx, newCompletion(user.ID, 200))
		require.NoError(t, err)
		assert.Equal(t, 300, remaining)

		stored, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 300, stored.Tokens)

		recorded, err := completions.ListRecentByUserID(ctx, user.ID, 5)
		require.NoError(t, err)
		assert.Len(t, recorded, 1)
	})

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().WithTokens(100).Build(t, db.DB)

		_, err := ledger.Spend(ctx, newCompletion(user.ID, 101))
		assert.ErrorIs(t, err, domain.ErrInsufficientTokens)

		stored, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, stored.Tokens)

		recorded, err := completions.ListRecentByUserID(ctx, user.ID, 5)
		require.NoError(t, err)
		assert.Empty(t, recorded)
	})

	t.Run("failed insert rolls back the debit", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().WithTokens(100).Build(t, db.DB)

		existing := testutil.NewCompletionBuilder(user).Build(t, db.DB)
		duplicate := newCompletion(user.ID, 10)
		duplicate.ID = existing.ID

		_, err := ledger.Spend(ctx, duplicate)
		require.Error(t, err)

		stored, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, stored.Tokens)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := ledger.Spend(ctx, newCompletion(uuid.New(), 10))
		assert.ErrorIs(t, err, domain.ErrInsufficientTokens)
	})

	t.Run("concurrent spends never overdraw", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().WithTokens(1000).Build(t, db.DB)

		const workers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			refused   int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.Spend(ctx, newCompletion(user.ID, 150))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case assert.ErrorIs(t, err, domain.ErrInsufficientTokens):
					refused++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 6, succeeded)
		assert.Equal(t, workers-6, refused)

		stored, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, stored.Tokens)

		recorded, err := completions.ListRecentByUserID(ctx, user.ID, workers)
		require.NoError(t, err)
		assert.Len(t, recorded, 6)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, postgres.Migrate(context.Background(), db.DB))
}
