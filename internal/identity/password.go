package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/argon2"

	"github.com/oakline/storefront/internal/apperr"
)

// SaltLength is the number of random bytes generated per account.
const SaltLength = 16

// Hasher derives a digest from an externally supplied salt and a plaintext
// password. Implementations must be deterministic for a given (salt, password)
// pair so stored digests stay verifiable.
type Hasher interface {
	Algo() string
	Hash(salt []byte, password string) []byte
}

// Argon2Hasher is the default for new accounts: argon2id over the password
// keyed by the account salt.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

func (a Argon2Hasher) Algo() string { return "argon2id" }

func (a Argon2Hasher) Hash(salt []byte, password string) []byte {
	t, m, p := a.Time, a.Memory, a.Threads
	if t == 0 {
		t = 1
	}
	if m == 0 {
		m = 64 * 1024
	}
	if p == 0 {
		p = 4
	}
	return argon2.IDKey([]byte(password), salt, t, m, p, 32)
}

// SHA256Hasher computes SHA-256 over salt||password. Kept so accounts
// imported from the legacy store keep verifying; new accounts get argon2id.
type SHA256Hasher struct{}

func (SHA256Hasher) Algo() string { return "sha256" }

func (SHA256Hasher) Hash(salt []byte, password string) []byte {
	sum := sha256.Sum256(append(append([]byte{}, salt...), []byte(password)...))
	return sum[:]
}

// GenerateSalt returns SaltLength cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "could not generate salt")
	}
	return salt, nil
}

// VerifyPassword recomputes the digest and compares in constant time, so a
// wrong password and a wrong-length digest are indistinguishable by timing.
func VerifyPassword(h Hasher, password string, salt, expected []byte) bool {
	computed := h.Hash(salt, password)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// EncodeSalt renders salt bytes in the text form used by the users table.
func EncodeSalt(salt []byte) string {
	return base64.StdEncoding.EncodeToString(salt)
}

// DecodeSalt parses a stored salt; malformed encodings are a validation error.
func DecodeSalt(s string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindValidation, "malformed salt encoding")
	}
	return salt, nil
}
