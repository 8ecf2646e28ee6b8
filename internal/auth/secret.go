package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes passed to DeriveKey.
const (
	KeyPurposeTokens = "prepwise tokens"
	KeyPurposeCSRF   = "prepwise csrf"
)

// MinSecretLength is the shortest AUTH_SESSION_SECRET accepted, in bytes.
const MinSecretLength = 32

// GenerateSessionSecret creates a random 32-byte secret, hex encoded.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ResolveSecret turns AUTH_SESSION_SECRET into key material. Hex values are
// decoded, anything else is used as raw bytes. An empty value produces a
// fresh random secret and generated is set.
func ResolveSecret(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil {
			return decoded, false, nil
		}
		return []byte(configured), false, nil
	}

	fresh, err := GenerateSessionSecret()
	if err != nil {
		return nil, false, err
	}
	secret, _ = hex.DecodeString(fresh)
	return secret, true, nil
}

// DeriveKey expands the configured secret into an independent 32-byte key
// for purpose, so the token signing key and the CSRF key never coincide.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.New("AUTH_SESSION_SECRET must be at least 32 bytes")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), key); err != nil {
		return nil, err
	}
	return key, nil
}
