// Package keystore implements a key store for the key material the service
// needs at runtime: symmetric sealing keys used to encrypt tenant secrets at
// rest and RSA public keys used to verify upstream identity assertions.
package keystore

import (
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// SymmetricKeySize is the required length of a sealing key.
const SymmetricKeySize = 32

// ErrKeyNotFound is returned when no key is registered under a kid.
var ErrKeyNotFound = errors.New("kid lookup failed")

// KeyStore represents an in memory store implementation of the
// KeyLookup interfaces used by secretbox and auth.
type KeyStore struct {
	mu        sync.RWMutex
	symmetric map[string][]byte
	public    map[string]string
}

// New constructs an empty KeyStore ready for use.
func New() *KeyStore {
	return &KeyStore{
		symmetric: make(map[string][]byte),
		public:    make(map[string]string),
	}
}

// LoadByFileSystem loads a set of keys from the file system. Files ending in
// .key hold a hex encoded sealing key; files ending in .pem hold an RSA public
// key in PEM form. The file name without extension is the kid.
func (ks *KeyStore) LoadByFileSystem(fsys fs.FS) (int, error) {
	fn := func(fileName string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if dirEntry.IsDir() {
			return nil
		}

		ext := path.Ext(fileName)
		if ext != ".key" && ext != ".pem" {
			return nil
		}

		file, err := fsys.Open(fileName)
		if err != nil {
			return fmt.Errorf("opening key file: %w", err)
		}
		defer file.Close()

		// limit PEM file size to 1 megabyte. This should be reasonable for
		// almost any PEM file and prevents shenanigans like linking the file
		// to /dev/random or something like that.
		data, err := io.ReadAll(io.LimitReader(file, 1024*1024))
		if err != nil {
			return fmt.Errorf("reading key file: %w", err)
		}

		kid := strings.TrimSuffix(dirEntry.Name(), ext)

		switch ext {
		case ".key":
			if err := ks.AddSymmetricKey(kid, strings.TrimSpace(string(data))); err != nil {
				return fmt.Errorf("kid[%s]: %w", kid, err)
			}

		case ".pem":
			if err := ks.AddPublicKey(kid, string(data)); err != nil {
				return fmt.Errorf("kid[%s]: %w", kid, err)
			}
		}

		return nil
	}

	if err := fs.WalkDir(fsys, ".", fn); err != nil {
		return 0, fmt.Errorf("walking directory: %w", err)
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return len(ks.symmetric) + len(ks.public), nil
}

// AddSymmetricKey registers a hex encoded sealing key under kid.
func (ks *KeyStore) AddSymmetricKey(kid string, hexKey string) error {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return fmt.Errorf("decoding sealing key: %w", err)
	}

	if len(key) != SymmetricKeySize {
		return fmt.Errorf("sealing key must be %d bytes, got %d", SymmetricKeySize, len(key))
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.symmetric[kid] = key

	return nil
}

// AddPublicKey registers a PEM encoded RSA public key under kid.
func (ks *KeyStore) AddPublicKey(kid string, publicPEM string) error {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return errors.New("invalid key: key must be PEM encoded")
	}

	if _, err := x509.ParsePKIXPublicKey(block.Bytes); err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.public[kid] = publicPEM

	return nil
}

// SymmetricKey searches the key store for a given kid and returns the
// sealing key. The returned slice is a copy.
func (ks *KeyStore) SymmetricKey(kid string) ([]byte, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	key, found := ks.symmetric[kid]
	if !found {
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(key))
	copy(out, key)

	return out, nil
}

// PublicKey searches the key store for a given kid and returns the public
// key in PEM form.
func (ks *KeyStore) PublicKey(kid string) (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	key, found := ks.public[kid]
	if !found {
		return "", ErrKeyNotFound
	}

	return key, nil
}
