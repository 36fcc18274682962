package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/repository/postgres"
	"github.com/dom/writing-assistant/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewCompletionRepository(db.DB)
	ctx := context.Background()

	t.Run("newest first with limit", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().Build(t, db.DB)

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 4; i++ {
			testutil.NewCompletionBuilder(user).
				WithPrompt(string(rune('a' + i))).
				WithCreatedAt(base.Add(time.Duration(i) * time.Second)).
				Build(t, db.DB)
		}

		recent, err := repo.ListRecentByUserID(ctx, user.ID, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "d", recent[0].Prompt)
		assert.Equal(t, "c", recent[1].Prompt)
		assert.Equal(t, "b", recent[2].Prompt)
		assert.Equal(t, "test", recent[0].Metadata["model"])
	})

	t.Run("same timestamp breaks ties by insertion order", func(t *testing.T) {
		db.Truncate(t)
		user, _ := testutil.NewUserBuilder().Build(t, db.DB)

		at := time.Now().Truncate(time.Microsecond)
		for _, prompt := range []string{"first", "second", "third"} {
			testutil.NewCompletionBuilder(user).WithPrompt(prompt).WithCreatedAt(at).Build(t, db.DB)
		}

		recent, err := repo.ListRecentByUserID(ctx, user.ID, 5)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "third", recent[0].Prompt)
		assert.Equal(t, "first", recent[2].Prompt)
	})

	t.Run("only the owner's completions", func(t *testing.T) {
		db.Truncate(t)
		owner, _ := testutil.NewUserBuilder().Build(t, db.DB)
		other, _ := testutil.NewUserBuilder().Build(t, db.DB)
		testutil.NewCompletionBuilder(other).Build(t, db.DB)

		recent, err := repo.ListRecentByUserID(ctx, owner.ID, 5)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("non-positive cost rejected", func(t *testing.T) {
		err := repo.Create(ctx, newCompletion(uuid.New(), 0))
		assert.ErrorIs(t, err, domain.ErrInvalidTokenCost)
	})
}
