// Package secretbox seals small secrets for storage at rest using
// XChaCha20-Poly1305. Sealed values carry the id of the key that sealed them
// so the active key can change without re-encrypting existing records.
//
// The cipher is reversible on purpose: sealed tenant secrets are opened to
// compute request signatures.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Set of error variables for sealing and opening.
var (
	ErrMalformed = errors.New("sealed value is malformed")
	ErrOpen      = errors.New("sealed value cannot be opened")
)

// KeyLookup declares a method set of behavior for looking up sealing keys.
type KeyLookup interface {
	SymmetricKey(kid string) ([]byte, error)
}

// Box seals with the active key and opens with whichever key a value names.
type Box struct {
	keys      KeyLookup
	activeKID string
}

// New constructs a Box. The active kid must resolve in the lookup.
func New(keys KeyLookup, activeKID string) (*Box, error) {
	if _, err := keys.SymmetricKey(activeKID); err != nil {
		return nil, fmt.Errorf("active kid[%s]: %w", activeKID, err)
	}

	return &Box{
		keys:      keys,
		activeKID: activeKID,
	}, nil
}

// Seal encrypts plaintext and returns "<kid>.<base64(nonce|ciphertext)>".
// The kid is bound as additional data.
func (b *Box) Seal(plaintext []byte) (string, error) {
	aead, err := b.aead(b.activeKID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(b.activeKID))

	return b.activeKID + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed string) ([]byte, error) {
	kid, payload, ok := strings.Cut(sealed, ".")
	if !ok || kid == "" || payload == "" {
		return nil, ErrMalformed
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformed
	}

	aead, err := b.aead(kid)
	if err != nil {
		return nil, err
	}

	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(kid))
	if err != nil {
		return nil, ErrOpen
	}

	return plaintext, nil
}

// ActiveKID returns the kid new values are sealed with.
func (b *Box) ActiveKID() string {
	return b.activeKID
}

func (b *Box) aead(kid string) (cipherAEAD, error) {
	key, err := b.keys.SymmetricKey(kid)
	if err != nil {
		return nil, fmt.Errorf("kid[%s]: %w", kid, err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	return aead, nil
}

type cipherAEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}
