package testutil

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
	tokens   int
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
		tokens:   1000,
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithTokens sets the starting balance
func (b *UserBuilder) WithTokens(tokens int) *UserBuilder {
	b.tokens = tokens
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		Tokens:       b.tokens,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndLogin creates the user and logs client in as them.
func (b *UserBuilder) BuildAndLogin(t *testing.T, ts *TestServer, client *http.Client) *domain.User {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	resp := PostForm(t, client, ts.URL("/auth?mode=login"), url.Values{
		"email":    {user.Email},
		"password": {password},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}

	return user
}

// CompletionBuilder creates stored completions
type CompletionBuilder struct {
	user      *domain.User
	prompt    string
	answer    string
	tokens    int
	createdAt time.Time
}

func NewCompletionBuilder(user *domain.User) *CompletionBuilder {
	return &CompletionBuilder{
		user:      user,
		prompt:    "Once upon a time",
		answer:    "there was a test.",
		tokens:    150,
		createdAt: time.Now(),
	}
}

func (b *CompletionBuilder) WithPrompt(prompt string) *CompletionBuilder {
	b.prompt = prompt
	return b
}

func (b *CompletionBuilder) WithCreatedAt(at time.Time) *CompletionBuilder {
	b.createdAt = at
	return b
}

// Build inserts the completion without touching the owner's balance.
func (b *CompletionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Completion {
	t.Helper()

	completion := &domain.Completion{
		ID:        uuid.New(),
		UserID:    b.user.ID,
		Prompt:    b.prompt,
		Answer:    b.answer,
		Tokens:    b.tokens,
		Metadata:  datatypes.JSONMap{"model": "test"},
		CreatedAt: b.createdAt,
	}

	if err := db.Create(completion).Error; err != nil {
		t.Fatalf("failed to create completion: %v", err)
	}

	return completion
}

// PostForm sends a form-encoded POST with client.
func PostForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// Get sends a GET with client.
func Get(t *testing.T, client *http.Client, target string) *http.Response {
	t.Helper()

	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
