package crypto

import "crypto/cipher"

// Sealer protects conversation content at rest. A Sealer without a key
// passes bytes through unchanged so deployments can run without ENCRYPTION_KEY.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a raw AES key. An empty key disables sealing.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return &Sealer{}, nil
	}
	aead, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Enabled reports whether content is actually encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && s.aead != nil
}

func (s *Sealer) Seal(plaintext string) ([]byte, error) {
	if !s.Enabled() {
		return []byte(plaintext), nil
	}
	return Encrypt(s.aead, []byte(plaintext))
}

func (s *Sealer) Open(stored []byte) (string, error) {
	if !s.Enabled() {
		return string(stored), nil
	}
	plaintext, err := Decrypt(s.aead, stored)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
