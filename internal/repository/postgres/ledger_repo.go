package postgres

import (
	"context"

	"github.com/dom/writing-assistant/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var returningTokens = clause.Returning{Columns: []clause.Column{{Name: "tokens"}}}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Spend(ctx context.Context, completion *domain.Completion) (int, error) {
	if completion.Tokens <= 0 {
		return 0, domain.ErrInvalidTokenCost
	}

	var remaining int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The balance check and the debit are one statement so two
		// concurrent submissions cannot both spend the same tokens.
		var user domain.User
		result := tx.Model(&user).
			Clauses(returningTokens).
			Where("id = ? AND tokens >= ?", completion.UserID, completion.Tokens).
			Update("tokens", gorm.Expr("tokens - ?", completion.Tokens))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInsufficientTokens
		}

		if err := tx.Create(completion).Error; err != nil {
			return err
		}

		remaining = user.Tokens
		return nil
	})
	if err != nil {
		return 0, err
	}

	return remaining, nil
}
