package pin

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PIN length bounds. The release PIN is a short numeric secret chosen by
// the claimant, not a password.
const (
	MinLength = 4
	MaxLength = 8
)

// Hasher defines the release-PIN hashing contract. PINs are hashed at rest;
// the allocation flow never sees a stored plaintext PIN.
type Hasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) error
}

// Validate enforces the PIN shape: MinLength to MaxLength ASCII digits.
func Validate(pin string) error {
	if len(pin) < MinLength || len(pin) > MaxLength {
		return fmt.Errorf("pin: must be %d to %d digits", MinLength, MaxLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("pin: digits only")
		}
	}
	return nil
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed PIN hasher.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash validates the PIN shape and converts it into its stored form.
func (h *BcryptHasher) Hash(pin string) (string, error) {
	if err := Validate(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks if the supplied PIN matches the stored hash.
func (h *BcryptHasher) Compare(hash, pin string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
}
