package source

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// GCM envelope layout: magic(8) + salt(16) + nonce(12) + ciphertext + tag(16).
const (
	envelopeMagic = "GCM3NCR0"
	saltLen       = 16
	nonceLen      = 12
	tagLen        = 16
	kdfIterations = 100000
)

func isEnvelope(data []byte) bool {
	return bytes.HasPrefix(data, []byte(envelopeMagic))
}

func envelopeKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
}

func decryptGCM(data []byte, password string) ([]byte, error) {
	m := len(envelopeMagic)
	if len(data) < m+saltLen+nonceLen+tagLen {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(data))
	}
	salt := data[m : m+saltLen]
	nonce := data[m+saltLen : m+saltLen+nonceLen]

	block, err := aes.NewCipher(envelopeKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, data[m+saltLen+nonceLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plain, nil
}
