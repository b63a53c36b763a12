package service

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
)

const (
	tokenBytes     = 20 // 160 bits, 32 base32 characters
	sessionIDBytes = 16
)

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// generateToken returns an opaque QR token. Uppercase base32 keeps the QR
// code in alphanumeric mode.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return tokenEncoding.EncodeToString(b), nil
}

func generateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
