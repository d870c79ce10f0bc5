package testutil

import (
	"hg-go/internal/encryption"
	"hg-go/internal/hg"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() hg.Encryptor {
	return encryption.NewTestEncryptor()
}
