package service

import (
	"context"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/repository"
)

// TokenLedger decides whether a user can pay for a completion and pays for it.
type TokenLedger struct {
	repo repository.LedgerRepository
}

func NewTokenLedger(repo repository.LedgerRepository) *TokenLedger {
	return &TokenLedger{repo: repo}
}

// CanAfford is an early check against a possibly stale balance. Spend is
// the authoritative one.
func (l *TokenLedger) CanAfford(user *domain.User, cost int) bool {
	return cost > 0 && cost <= user.Tokens
}

// Spend debits the completion's cost and records it. Either both happen
// or neither does.
func (l *TokenLedger) Spend(ctx context.Context, completion *domain.Completion) (int, error) {
	if completion.Tokens <= 0 {
		return 0, domain.ErrInvalidTokenCost
	}
	return l.repo.Spend(ctx, completion)
}
