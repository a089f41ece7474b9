package common

import (
	"messagely/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes with bcrypt at a fixed work factor.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cfg *config.Config) *PasswordHasher {
	cost := cfg.Auth.BcryptWorkFactor
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Matches compares in constant time.
func (h *PasswordHasher) Matches(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}
