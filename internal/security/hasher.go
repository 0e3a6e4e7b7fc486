// Package security implements credential hashing and verification.
package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	tachyonerrors "tachyon/pkg/errors"
)

// CredentialHasher produces and verifies one-way salted credential digests.
// Hashing the same plaintext twice yields different outputs; both verify.
type CredentialHasher interface {
	// Hash generates a salted hash from a plaintext credential.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches hash. A mismatch is not an
	// error; only a malformed hash is.
	Verify(plaintext, hash string) (bool, error)
}

// BcryptHasher implements CredentialHasher with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a BcryptHasher. Costs outside bcrypt's valid
// range fall back to the default cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	// Anything else means the stored hash is not a valid bcrypt digest.
	return false, fmt.Errorf("%w: %v", tachyonerrors.ErrInvalidHashFormat, err)
}
