package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
)

// GenerateKey creates a new random master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey renders a key for storage in an environment variable.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// ParseKey decodes a base64 master key (standard or URL alphabet) and checks its size.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, errors.Join(ErrInvalidKey, err)
		}
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
