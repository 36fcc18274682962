package service

import (
	"net/http"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/google/uuid"
)

// User-facing messages. They are part of the HTTP contract.
const (
	MsgEmailTaken      = "A user with the provided email address exists already."
	MsgBadCredentials  = "Could not log you in, please check the provided credentials."
	MsgNotEnoughTokens = "Not enough tokens"
	MsgUpstreamFailure = "Something went wrong. Try again in a sec."
	MsgInvalidTokens   = "Tokens must be a positive whole number."
	MsgEmptyPrompt     = "Please enter a prompt."
)

type Kind int

const (
	// KindSession means the credentials were accepted and a session should
	// be issued for UserID.
	KindSession Kind = iota + 1
	// KindRedirect sends the client to Location without further work. An
	// empty Location means the login page.
	KindRedirect
	// KindInvalid carries field errors for the client to display.
	KindInvalid
	// KindCompleted carries a newly recorded completion.
	KindCompleted
)

// Result is the outcome of an orchestration step that did not fail
// unexpectedly. Unexpected failures are returned as errors instead.
type Result struct {
	Kind   Kind
	Status int
	Errors domain.FieldErrors

	UserID   uuid.UUID
	Remember bool

	Location string

	Completion *domain.Completion
	Tokens     int
}

func invalid(status int, errs domain.FieldErrors) *Result {
	return &Result{Kind: KindInvalid, Status: status, Errors: errs}
}

func sessionFor(userID uuid.UUID, remember bool) *Result {
	return &Result{Kind: KindSession, Status: http.StatusSeeOther, UserID: userID, Remember: remember}
}

func loginRequired() *Result {
	return &Result{Kind: KindRedirect, Status: http.StatusSeeOther}
}

func completed(completion *domain.Completion, remaining int) *Result {
	return &Result{Kind: KindCompleted, Status: http.StatusCreated, Completion: completion, Tokens: remaining}
}
