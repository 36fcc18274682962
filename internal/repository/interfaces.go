package repository

import (
	"context"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, tokens int) (*domain.User, error)
}

type CompletionRepository interface {
	Create(ctx context.Context, completion *domain.Completion) error
	ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Completion, error)
}

// LedgerRepository pays for a completion out of its owner's balance.
type LedgerRepository interface {
	// Spend debits completion.Tokens from the owner and stores the
	// completion in one transaction. It returns the remaining balance, or
	// domain.ErrInsufficientTokens with nothing written.
	Spend(ctx context.Context, completion *domain.Completion) (int, error)
}

type Repositories struct {
	User       UserRepository
	Completion CompletionRepository
	Ledger     LedgerRepository
}
