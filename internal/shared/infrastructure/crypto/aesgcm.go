// Package crypto seals journal text at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks values written by AESGCM so readers without a key can
// tell ciphertext from plaintext.
const sealedPrefix = "enc:v1:"

var (
	// ErrInvalidKey is returned for keys that are not base64 for 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be base64 encoding of 32 bytes")
	// ErrEncryptionKeyRequired is returned when sealed content is read without a key.
	ErrEncryptionKeyRequired = errors.New("content is encrypted and no encryption key is configured")
	// ErrMalformedCiphertext is returned for truncated or corrupt values.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// ContentCipher seals and opens text fields.
type ContentCipher interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

// NewContentCipher returns AES-256-GCM for a non-empty key and a passthrough
// cipher otherwise.
func NewContentCipher(encodedKey string) (ContentCipher, error) {
	if strings.TrimSpace(encodedKey) == "" {
		return Plaintext{}, nil
	}
	return NewAESGCM(encodedKey)
}

// IsSealed reports whether a stored value was written by AESGCM.
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}

// AESGCM seals with a random nonce prepended to the ciphertext.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates a cipher from a base64-encoded 32-byte key.
func NewAESGCM(encodedKey string) (*AESGCM, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

func (c *AESGCM) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts sealed values. Unsealed values are returned unchanged so
// entries written before a key was configured stay readable.
func (c *AESGCM) Open(stored string) (string, error) {
	encoded, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrMalformedCiphertext
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt content: %w", err)
	}
	return string(plaintext), nil
}

// Plaintext stores text as is.
type Plaintext struct{}

func (Plaintext) Seal(plaintext string) (string, error) { return plaintext, nil }

func (Plaintext) Open(stored string) (string, error) {
	if IsSealed(stored) {
		return "", ErrEncryptionKeyRequired
	}
	return stored, nil
}
