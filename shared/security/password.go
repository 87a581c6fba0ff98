// Package security provides one-way password hashing and verification.
package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a password hashing algorithm.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const (
	// DefaultBcryptCost is the work factor used when none is configured.
	DefaultBcryptCost = 12

	// MinProductionBcryptCost is the lowest cost the service accepts from configuration.
	MinProductionBcryptCost = 10

	// bcrypt only looks at the first 72 bytes of its input.
	maxBcryptPasswordLength = 72
)

var (
	// ErrMalformedCredential is returned when a stored hash cannot be parsed.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// PasswordHasher hashes plaintext passwords and verifies them against stored hashes.
type PasswordHasher interface {
	// Hash returns a salted one-way hash of the password. Every call yields a different value.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the encoded hash. A mismatch is (false, nil);
	// an unparseable hash is (false, ErrMalformedCredential).
	Verify(password, encoded string) (bool, error)
}

// Config selects the algorithm new hashes are produced with.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     *argon2.Config
}

type passwordHasher struct {
	algorithm  Algorithm
	bcryptCost int
	argon2     argon2.Config
}

// NewPasswordHasher creates a PasswordHasher for the given configuration.
func NewPasswordHasher(cfg Config) (PasswordHasher, error) {
	h := &passwordHasher{
		algorithm:  cfg.Algorithm,
		bcryptCost: cfg.BcryptCost,
		argon2:     argon2.DefaultConfig(),
	}

	if h.algorithm == "" {
		h.algorithm = AlgorithmBcrypt
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = DefaultBcryptCost
	}
	if cfg.Argon2 != nil {
		h.argon2 = *cfg.Argon2
	}

	switch h.algorithm {
	case AlgorithmBcrypt:
		if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", h.bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		h.argon2.Mode = argon2.ModeArgon2id
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", h.algorithm)
	}

	return h, nil
}

func (h *passwordHasher) Hash(password string) (string, error) {
	switch h.algorithm {
	case AlgorithmArgon2id:
		encoded, err := h.argon2.HashEncoded([]byte(password))
		if err != nil {
			return "", fmt.Errorf("argon2 hash: %w", err)
		}
		return string(encoded), nil
	default:
		if len(password) > maxBcryptPasswordLength {
			return "", ErrPasswordTooLong
		}
		encoded, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(encoded), nil
	}
}

// Verify dispatches on the hash encoding rather than the configured algorithm, so hashes
// written before an algorithm switch keep working.
func (h *passwordHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2"):
		ok, err := argon2.VerifyEncoded([]byte(password), []byte(encoded))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
		}
		return ok, nil
	case strings.HasPrefix(encoded, "$2"):
		if len(password) > maxBcryptPasswordLength {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	default:
		return false, ErrMalformedCredential
	}
}

// IsHash reports whether value looks like an encoded hash produced by this package.
func IsHash(value string) bool {
	return strings.HasPrefix(value, "$argon2") || strings.HasPrefix(value, "$2")
}
