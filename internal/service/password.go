package service

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor used for stored password digests.
const DefaultBcryptCost = 12

// maxPasswordBytes is the most bcrypt reads. Longer input is cut here on
// both hash and verify.
const maxPasswordBytes = 72

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

type bcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(clamp(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify relies on bcrypt's constant-time comparison.
func (h *bcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), clamp(password)) == nil
}

func clamp(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
