package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// Store hashes and verifies passwords and mints opaque random tokens.
// Hashing is argon2id with embedded per-hash salt, so two hashes of the
// same password never match byte-for-byte but both verify.
type Store struct {
	params *argon2id.Params
}

func NewStore() *Store {
	return &Store{params: argon2id.DefaultParams}
}

func (s *Store) Hash(plaintext string) (string, error) {
	digest, err := argon2id.CreateHash(plaintext, s.params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return digest, nil
}

// Verify compares in constant time via argon2id. A malformed digest counts
// as a mismatch rather than an error the caller has to branch on.
func (s *Store) Verify(plaintext, digest string) bool {
	ok, err := argon2id.ComparePasswordAndHash(plaintext, digest)
	if err != nil {
		return false
	}
	return ok
}

// RandomToken returns byteLength bytes of CSPRNG output, URL-safe encoded.
func (s *Store) RandomToken(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
