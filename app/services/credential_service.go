// Package services provides external service integrations and technical concerns like tokens and credentials
package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialService handles password hashing and unguessable credential
// generation
type CredentialService interface {
	HashPassword(plaintext string) (string, error)
	ComparePassword(hash, plaintext string) error
	// GenerateScrambledPassword returns a random password nobody knows. It is
	// written to a closed account so the old password stops working.
	GenerateScrambledPassword() (string, error)
	// GenerateTokenSeed returns a fresh auth token seed. Rotating the seed
	// invalidates every token derived from the old one.
	GenerateTokenSeed() (string, error)
}

// scrambledPasswordSuffix keeps generated passwords past complexity rules
// that require an upper-case letter, a digit, and a lower-case letter.
const scrambledPasswordSuffix = "A1a"

// CredentialServiceImpl implements CredentialService with bcrypt
type CredentialServiceImpl struct {
	bcryptCost int
}

// NewCredentialService creates a new credential service
func NewCredentialService(bcryptCost int) CredentialService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialServiceImpl{bcryptCost: bcryptCost}
}

// HashPassword hashes a plaintext password with bcrypt
func (s *CredentialServiceImpl) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hash against a plaintext candidate
func (s *CredentialServiceImpl) ComparePassword(hash, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// GenerateScrambledPassword returns 32 random hex characters plus a fixed
// suffix satisfying complexity rules
func (s *CredentialServiceImpl) GenerateScrambledPassword() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate scrambled password: %w", err)
	}
	return hex.EncodeToString(bytes) + scrambledPasswordSuffix, nil
}

// GenerateTokenSeed returns 32 random hex characters
func (s *CredentialServiceImpl) GenerateTokenSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
