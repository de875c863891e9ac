package util

import (
	"crypto/rand"
	"encoding/hex"
)

// Key lengths in bytes. Hex encoding doubles them.
const (
	AuthTokenBytes    = 20
	ConfirmTokenBytes = 16
	ResetTokenBytes   = 24
)

// GenerateKey returns n random bytes hex encoded.
func GenerateKey(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
