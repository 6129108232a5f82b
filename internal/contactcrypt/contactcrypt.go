// Package contactcrypt encrypts seller contact information at rest.
//
// Values are sealed with AES-256-GCM under a key derived from the configured passphrase with
// scrypt. Each Encrypt call draws a fresh random nonce, stored in front of the ciphertext as
// "<nonce hex>:<ciphertext hex>".
package contactcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const keyLen = 32

// scrypt cost parameters; changing any of them invalidates every stored value.
const (
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
)

var keySalt = []byte("secondhand-market/contact/v1")

// ErrCorrupt is returned when a stored value cannot be decoded or authenticated.
var ErrCorrupt = errors.New("contactcrypt: corrupt ciphertext")

// Cipher seals and opens contact strings. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New derives the encryption key from passphrase.
func New(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("contactcrypt: empty passphrase")
	}
	key, err := scrypt.Key([]byte(passphrase), keySalt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Cipher{aead: gcm, rand: rand.Reader}, nil
}

// Encrypt seals plaintext with a fresh nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any malformed or tampered input yields an error
// wrapping ErrCorrupt.
func (c *Cipher) Decrypt(stored string) (string, error) {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected 2 segments, got %d", ErrCorrupt, len(parts))
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrCorrupt, err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return "", fmt.Errorf("%w: nonce length %d", ErrCorrupt, len(nonce))
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrCorrupt, err)
	}
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return string(plaintext), nil
}
