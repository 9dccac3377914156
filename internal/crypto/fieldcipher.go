// Package crypto provides reversible field-level encryption for PII at rest
// plus a deterministic keyed lookup hash enabling equality search over
// encrypted columns without decrypting them.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/spec-kit/registration-portal/pkg/util/errorutil"
)

// AlgorithmAESGCM identifies the only cipher currently written to storage.
// The algorithm id travels with every ciphertext so key rotation to a new
// scheme can coexist with old rows.
const AlgorithmAESGCM = "aes-256-gcm"

const keySize = 32

// EncryptedField is the stored form of a sensitive attribute.
type EncryptedField struct {
	Ciphertext []byte
	IV         []byte
	Algorithm  string
}

// IsZero reports whether the field has never been populated.
func (f EncryptedField) IsZero() bool {
	return len(f.Ciphertext) == 0 && len(f.IV) == 0
}

// LookupHash is the hex-encoded keyed digest of a normalized plaintext.
type LookupHash string

// FieldCipher encrypts and decrypts individual PII fields. The cipher key
// and the lookup-hash key are distinct, loaded once at startup, and never
// appear in persisted records or logs.
type FieldCipher struct {
	aead    cipher.AEAD
	hashKey []byte
}

// NewFieldCipher builds a cipher from a 32-byte AES key and a 32-byte
// lookup-hash key.
func NewFieldCipher(cipherKey, hashKey []byte) (*FieldCipher, error) {
	if len(cipherKey) != keySize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", keySize, len(cipherKey))
	}
	if len(hashKey) != keySize {
		return nil, fmt.Errorf("lookup hash key must be %d bytes, got %d", keySize, len(hashKey))
	}

	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &FieldCipher{aead: aead, hashKey: append([]byte(nil), hashKey...)}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Nonces are never
// reused for the same key.
func (c *FieldCipher) Encrypt(plaintext string) (EncryptedField, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return EncryptedField{}, err
	}

	return EncryptedField{
		Ciphertext: c.aead.Seal(nil, iv, []byte(plaintext), nil),
		IV:         iv,
		Algorithm:  AlgorithmAESGCM,
	}, nil
}

// Decrypt recovers the original plaintext. It fails closed: a bad tag,
// truncated IV, or unknown algorithm yields a DecryptionError and no
// partial output.
func (c *FieldCipher) Decrypt(field EncryptedField) (string, error) {
	if field.Algorithm != AlgorithmAESGCM {
		return "", apperrors.NewDecryptionError(fmt.Errorf("unknown algorithm %q", field.Algorithm))
	}
	if len(field.IV) != c.aead.NonceSize() {
		return "", apperrors.NewDecryptionError(errors.New("malformed iv"))
	}

	plaintext, err := c.aead.Open(nil, field.IV, field.Ciphertext, nil)
	if err != nil {
		return "", apperrors.NewDecryptionError(err)
	}
	return string(plaintext), nil
}

// ComputeLookupHash digests the normalized plaintext with HMAC-SHA256 under
// the hash key. Identical plaintexts (up to casing and surrounding
// whitespace) always produce identical hashes; the digest is one-way even
// if the stored hashes leak.
func (c *FieldCipher) ComputeLookupHash(plaintext string) LookupHash {
	mac := hmac.New(sha256.New, c.hashKey)
	mac.Write([]byte(Normalize(plaintext)))
	return LookupHash(hex.EncodeToString(mac.Sum(nil)))
}

// Normalize is the canonical form hashed for equality search.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
