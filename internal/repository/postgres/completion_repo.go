package postgres

import (
	"context"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type completionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *completionRepository {
	return &completionRepository{db: db}
}

func (r *completionRepository) Create(ctx context.Context, completion *domain.Completion) error {
	if completion.Tokens <= 0 {
		return domain.ErrInvalidTokenCost
	}
	return r.db.WithContext(ctx).Create(completion).Error
}

// ListRecentByUserID returns the newest completions first. Rows created in
// the same instant come back in reverse insertion order.
func (r *completionRepository) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Completion, error) {
	var completions []*domain.Completion
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}
