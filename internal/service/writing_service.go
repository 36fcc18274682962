package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/gateway"
	"github.com/dom/writing-assistant/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// DefaultTokens is used when a submission leaves the token field empty.
const DefaultTokens = 150

// CompletionGateway produces text for a prompt.
type CompletionGateway interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (*gateway.Answer, error)
}

type WritingService struct {
	userRepo       repository.UserRepository
	completionRepo repository.CompletionRepository
	ledger         *TokenLedger
	gateway        CompletionGateway
}

func NewWritingService(
	userRepo repository.UserRepository,
	completionRepo repository.CompletionRepository,
	ledger *TokenLedger,
	gateway CompletionGateway,
) *WritingService {
	return &WritingService{
		userRepo:       userRepo,
		completionRepo: completionRepo,
		ledger:         ledger,
		gateway:        gateway,
	}
}

// Submission is the raw writing form.
type Submission struct {
	Prompt string
	Tokens string
}

// WritingPage is what the writing screen shows.
type WritingPage struct {
	User              *domain.Principal    `json:"user"`
	RecentCompletions []*domain.Completion `json:"recentCompletions"`
}

func (s *WritingService) Page(ctx context.Context, userID uuid.UUID) (*WritingPage, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.completionRepo.ListRecentByUserID(ctx, userID, domain.RecentCompletionsLimit)
	if err != nil {
		return nil, err
	}

	return &WritingPage{
		User:              user.Principal(),
		RecentCompletions: recent,
	}, nil
}

// Submit checks the budget, calls the gateway and pays for the answer.
// Nothing is written unless the gateway succeeded and the debit went through.
func (s *WritingService) Submit(ctx context.Context, userID uuid.UUID, input Submission) (*Result, error) {
	logger := log.Ctx(ctx).With().Str("user_id", userID.String()).Logger()

	errs := domain.FieldErrors{}
	tokens, ok := parseTokens(input.Tokens)
	if !ok {
		errs["tokens"] = MsgInvalidTokens
	}
	if strings.TrimSpace(input.Prompt) == "" {
		errs["prompt"] = MsgEmptyPrompt
	}
	if !errs.Empty() {
		return invalid(http.StatusBadRequest, errs), nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return loginRequired(), nil
		}
		return nil, err
	}

	if !s.ledger.CanAfford(user, tokens) {
		return notEnoughTokens(), nil
	}

	start := time.Now()
	answer, err := s.gateway.Complete(ctx, input.Prompt, tokens)
	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("completion gateway failed")
		return invalid(http.StatusBadGateway, domain.FieldErrors{"openAI": MsgUpstreamFailure}), nil
	}

	completion := &domain.Completion{
		ID:        uuid.New(),
		UserID:    userID,
		Prompt:    input.Prompt,
		Answer:    answer.Text,
		Tokens:    tokens,
		Metadata:  answerMetadata(answer),
		CreatedAt: time.Now(),
	}

	remaining, err := s.ledger.Spend(ctx, completion)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientTokens) {
			logger.Info().Int("tokens", tokens).Msg("balance spent by a concurrent submission")
			return notEnoughTokens(), nil
		}
		return nil, err
	}

	logger.Info().Int("tokens", tokens).Int("remaining", remaining).Msg("completion recorded")
	return completed(completion, remaining), nil
}

func parseTokens(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTokens, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func answerMetadata(answer *gateway.Answer) datatypes.JSONMap {
	meta := datatypes.JSONMap{}
	if answer.Model != "" {
		meta["model"] = answer.Model
	}
	if answer.FinishReason != "" {
		meta["finishReason"] = answer.FinishReason
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func notEnoughTokens() *Result {
	return invalid(http.StatusUnprocessableEntity, domain.FieldErrors{"tokens": MsgNotEnoughTokens})
}
