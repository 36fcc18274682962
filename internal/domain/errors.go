package domain

import "errors"

// Account errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNegativeBalance = errors.New("token balance must be non-negative")
)

// Ledger errors
var (
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrInvalidTokenCost   = errors.New("token cost must be positive")
)
