package testutil

import (
	"tidy-go/internal/encryption"
	"tidy-go/internal/safety"
)

// NewTestEncryptor creates a deterministic encryptor for testing.
func NewTestEncryptor() safety.Encryptor {
	return encryption.NewTestEncryptor()
}
