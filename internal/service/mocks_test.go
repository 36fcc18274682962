package service_test

import (
	"context"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens int) (*domain.User, error) {
	args := m.Called(ctx, id, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockCompletionRepository is a mock implementation of repository.CompletionRepository.
type MockCompletionRepository struct {
	mock.Mock
}

func (m *MockCompletionRepository) Create(ctx context.Context, completion *domain.Completion) error {
	args := m.Called(ctx, completion)
	return args.Error(0)
}

func (m *MockCompletionRepository) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Completion, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Completion), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Spend(ctx context.Context, completion *domain.Completion) (int, error) {
	args := m.Called(ctx, completion)
	return args.Int(0), args.Error(1)
}

// MockGateway is a mock implementation of service.CompletionGateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Complete(ctx context.Context, prompt string, maxTokens int) (*gateway.Answer, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Answer), args.Error(1)
}
