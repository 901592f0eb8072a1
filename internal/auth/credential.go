// Package auth provides the credential primitives shared by account and
// administrator authentication: salt generation, secret hashing and
// constant-time verification, plus the singleton administrator credential
// file.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the per-credential salt width in bytes.
	SaltSize = 16
	// DigestSize is the stored digest width in bytes.
	DigestSize = 32

	// iterations is fixed: stored digests carry no parameter field, so
	// changing this invalidates every existing credential.
	iterations = 64_000
)

// ErrWrongCredential is returned when a secret does not match the stored
// digest.
var ErrWrongCredential = errors.New("wrong credential")

// GenerateSalt returns n bytes from the system CSPRNG.
func GenerateSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashSecret derives the 32-byte digest for secret under salt.
func HashSecret(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, iterations, DigestSize, sha256.New)
}

// Verify reports whether secret hashes to digest under salt, comparing in
// constant time.
func Verify(secret string, salt, digest []byte) bool {
	return subtle.ConstantTimeCompare(HashSecret(secret, salt), digest) == 1
}
