package service

import (
	"github.com/dom/writing-assistant/internal/config"
	"github.com/dom/writing-assistant/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Writing *WritingService
}

func NewServices(repos *repository.Repositories, gateway CompletionGateway, cfg *config.Config) *Services {
	hasher := NewBcryptHasher(cfg.BcryptCost)
	ledger := NewTokenLedger(repos.Ledger)

	return &Services{
		Auth:    NewAuthService(repos.User, hasher, cfg.StartingTokens),
		Writing: NewWritingService(repos.User, repos.Completion, ledger, gateway),
	}
}
