// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// sealSalt scopes key derivation to this application. Secrecy comes from the
// configured secret, not the salt.
var sealSalt = []byte("idpkit.securestore.v1")

var errSealedTooShort = errors.New("securestore: sealed value too short")

// Sealer encrypts stored values with XChaCha20-Poly1305 using a key derived
// from the configured secret via argon2id.
type Sealer struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewSealer derives the sealing key from secret. An empty secret disables
// sealing and returns a nil Sealer, which passes values through unchanged.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, nil
	}
	key := argon2.IDKey([]byte(secret), sealSalt, 1, 64*1024, 4, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plain, prepending the random nonce. The namespace binds the
// ciphertext to its isolation boundary as AEAD associated data.
func (s *Sealer) Seal(namespace string, plain []byte) ([]byte, error) {
	if s == nil {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(namespace)), nil
}

// Open decrypts a value produced by Seal under the same namespace.
func (s *Sealer) Open(namespace string, sealed []byte) ([]byte, error) {
	if s == nil {
		return sealed, nil
	}
	if len(sealed) < s.aead.NonceSize() {
		return nil, errSealedTooShort
	}
	nonce, ct := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ct, []byte(namespace))
}
