// Package sessionstore keeps bearer tokens in per-browser, per-context slots.
// Tokens are sealed before they reach the backing store, so a dump of the
// cache or of Redis does not leak usable credentials.
package sessionstore

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealInfo = "bfa-session-slot/v1"

// ErrTampered is returned when a sealed value fails authentication.
var ErrTampered = errors.New("sealed session value failed authentication")

// Sealer encrypts tokens with XChaCha20-Poly1305 under a key derived from
// the configured secret. The slot key is bound as associated data, so a
// value copied to another slot does not open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from secret. An empty secret yields a
// random process-local key; sealed values then do not survive a restart.
func NewSealer(secret string) (*Sealer, error) {
	ikm := []byte(secret)
	if len(ikm) == 0 {
		ikm = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(ikm); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts token for the given slot key.
func (s *Sealer) Seal(slot, token string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(token)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(token), []byte(slot))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal for the same slot key.
func (s *Sealer) Open(slot, value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", ErrTampered
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(slot))
	if err != nil {
		return "", ErrTampered
	}
	return string(plain), nil
}
