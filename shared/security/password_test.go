package security

import (
	"strings"
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestBcryptHasher(t *testing.T) PasswordHasher {
	t.Helper()

	h, err := NewPasswordHasher(Config{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return h
}

func newTestArgon2Hasher(t *testing.T) PasswordHasher {
	t.Helper()

	cfg := argon2.DefaultConfig()
	cfg.TimeCost = 1
	cfg.MemoryCost = 8 * 1024
	cfg.Parallelism = 1

	h, err := NewPasswordHasher(Config{Algorithm: AlgorithmArgon2id, Argon2: &cfg})
	require.NoError(t, err)
	return h
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	for name, h := range map[string]PasswordHasher{
		"bcrypt":   newTestBcryptHasher(t),
		"argon2id": newTestArgon2Hasher(t),
	} {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("Secret123")
			require.NoError(t, err)
			assert.NotEqual(t, "Secret123", hash)
			assert.True(t, IsHash(hash))

			ok, err := h.Verify("Secret123", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("Secret124", hash)
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = h.Verify("", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPasswordHasher_SaltIsRandomPerCall(t *testing.T) {
	h := newTestBcryptHasher(t)

	first, err := h.Hash("Secret123")
	require.NoError(t, err)
	second, err := h.Hash("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, hash := range []string{first, second} {
		ok, err := h.Verify("Secret123", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestPasswordHasher_HashIsNotAPassword(t *testing.T) {
	h := newTestBcryptHasher(t)

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)

	// Feeding a stored hash back in as the password must not verify.
	ok, err := h.Verify(hash, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	h, err := NewPasswordHasher(Config{})
	require.NoError(t, err)

	hasher, ok := h.(*passwordHasher)
	require.True(t, ok)
	assert.Equal(t, AlgorithmBcrypt, hasher.algorithm)
	assert.Equal(t, DefaultBcryptCost, hasher.bcryptCost)
}

func TestPasswordHasher_WithCustomCost(t *testing.T) {
	h := newTestBcryptHasher(t)

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := newTestBcryptHasher(t)

	for _, encoded := range []string{
		"",
		"invalid_hash",
		"Secret123",
		"$2a$04$short",
		"$argon2id$v=19$garbage",
	} {
		ok, err := h.Verify("Secret123", encoded)
		assert.False(t, ok, encoded)
		assert.ErrorIs(t, err, ErrMalformedCredential, encoded)
	}
}

func TestPasswordHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	bcryptHasher := newTestBcryptHasher(t)
	argonHasher := newTestArgon2Hasher(t)

	bcryptHash, err := bcryptHasher.Hash("Secret123")
	require.NoError(t, err)
	argonHash, err := argonHasher.Hash("Secret123")
	require.NoError(t, err)

	ok, err := argonHasher.Verify("Secret123", bcryptHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bcryptHasher.Verify("Secret123", argonHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := newTestBcryptHasher(t)
	long := strings.Repeat("a", 73)

	_, err := h.Hash(long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := h.Hash(long[:72])
	require.NoError(t, err)

	ok, err := h.Verify(long, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewPasswordHasher_InvalidConfig(t *testing.T) {
	_, err := NewPasswordHasher(Config{Algorithm: "md5"})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Config{Algorithm: AlgorithmBcrypt, BcryptCost: 99})
	assert.Error(t, err)
}
