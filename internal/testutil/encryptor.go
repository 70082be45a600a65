package testutil

import (
	"pm-go/internal/encryption"
	"pm-go/internal/pm"
)

// NewTestEncryptor creates a configured test encryptor whose passphrase is "".
func NewTestEncryptor() pm.Encryptor {
	return encryption.NewTestEncryptor()
}
