// Package crypto derives cipher keys from master passwords and seals data
// with XSalsa20-Poly1305 (NaCl secretbox).
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the fixed key width. Longer passwords are rejected.
	KeySize = 32
	// NonceSize is the secretbox nonce width.
	NonceSize = 24
	// Overhead is the authentication tag size added by Seal.
	Overhead = secretbox.Overhead
)

var (
	// ErrKeyLength is returned when a password does not fit the key.
	ErrKeyLength = errors.New("key length invalid")
	// ErrDecrypt is returned when a box fails authentication.
	ErrDecrypt = errors.New("decryption failed")
)

// DeriveKey copies password into a zero-padded key of KeySize bytes.
//
// An empty password is accepted and gives an all-zero key. Callers should
// check IsWeak and warn.
func DeriveKey(password string) (*[KeySize]byte, error) {
	if len(password) > KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, max %d", ErrKeyLength, len(password), KeySize)
	}
	var key [KeySize]byte
	copy(key[:], password)
	return &key, nil
}

// IsWeak reports whether password derives the all-zero key.
func IsWeak(password string) bool {
	return password == ""
}

// GenerateNonce returns a fresh random nonce. A nonce must never be reused
// with the same key.
func GenerateNonce() (*[NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return &nonce, nil
}

// Seal encrypts and authenticates plaintext.
func Seal(key *[KeySize]byte, nonce *[NonceSize]byte, plaintext []byte) []byte {
	return secretbox.Seal(nil, plaintext, nonce, key)
}

// Open authenticates and decrypts box.
func Open(key *[KeySize]byte, nonce *[NonceSize]byte, box []byte) ([]byte, error) {
	plain, ok := secretbox.Open(nil, box, nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
