// Package secret seals stock credentials at rest with NaCl secretbox.
package secret

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// ErrOpen is returned for tampered ciphertext or the wrong key
var ErrOpen = errors.New("secret: cannot open sealed value")

// Sealer implements catalog.CredentialSealer
type Sealer struct {
	key        [keySize]byte
	fingerKey  []byte
	randSource io.Reader
}

// NewSealer creates a sealer from a 32-byte key
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("secret: key must be %d bytes, got %d", keySize, len(key))
	}
	s := &Sealer{randSource: rand.Reader}
	copy(s.key[:], key)

	// fingerprints use a key derived from, but not equal to, the sealing key
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("stock-fingerprint"))
	s.fingerKey = mac.Sum(nil)
	return s, nil
}

// Seal encrypts plaintext as nonce || secretbox
func (s *Sealer) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.randSource, nonce[:]); err != nil {
		return nil, fmt.Errorf("secret: read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key), nil
}

// Open decrypts a value produced by Seal
func (s *Sealer) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}

// Fingerprint is a keyed digest of the trimmed plaintext.
// Equal credentials give equal fingerprints without storing them in clear.
func (s *Sealer) Fingerprint(plaintext string) string {
	mac := hmac.New(sha256.New, s.fingerKey)
	mac.Write([]byte(strings.TrimSpace(plaintext)))
	return hex.EncodeToString(mac.Sum(nil))
}
