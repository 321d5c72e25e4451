package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// SealedPrefix marks a config value sealed with SecretBox.
const SealedPrefix = "enc:"

// SecretKeyEnv names the variable holding the passphrase for sealed values.
const SecretKeyEnv = "SAMARTH_SECRET_KEY"

// ErrNoSecretKey is returned when a sealed value is found but no key is set.
var ErrNoSecretKey = errors.New(SecretKeyEnv + " is not set")

// SecretBox seals API keys with AES-256-GCM so config files can be committed.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives the key from a passphrase.
func NewSecretBox(passphrase string) (*SecretBox, error) {
	if passphrase == "" {
		return nil, ErrNoSecretKey
	}
	sum := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &SecretBox{aead: aead}, nil
}

// NewSecretBoxFromEnv reads the passphrase from SAMARTH_SECRET_KEY.
func NewSecretBoxFromEnv() (*SecretBox, error) {
	return NewSecretBox(os.Getenv(SecretKeyEnv))
}

// Seal returns "enc:" + base64(nonce || ciphertext).
func (b *SecretBox) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the prefix are returned unchanged.
func (b *SecretBox) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	n := b.aead.NonceSize()
	if len(data) < n {
		return "", errors.New("sealed value too short")
	}
	plain, err := b.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}

// IsSealed reports whether value carries the sealed prefix
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// MaskSecret returns a masked version safe for logs: "****abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// openSecrets unseals the API keys in place.
func openSecrets(cfg *Config) error {
	fields := []*string{&cfg.LLM.APIKey, &cfg.Data.APIKey}

	var box *SecretBox
	for _, f := range fields {
		if !IsSealed(*f) {
			continue
		}
		if box == nil {
			var err error
			if box, err = NewSecretBoxFromEnv(); err != nil {
				return fmt.Errorf("cannot open sealed api key: %w", err)
			}
		}
		plain, err := box.Open(*f)
		if err != nil {
			return fmt.Errorf("cannot open sealed api key: %w", err)
		}
		*f = plain
	}
	return nil
}
