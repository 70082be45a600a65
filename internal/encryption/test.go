package encryption

import (
	"bytes"
	"fmt"
	"io"

	"pm-go/internal/pm"
)

// testHeader marks data "encrypted" by TestEncryptor.
var testHeader = []byte("PMTEST\x00\x01")

// TestEncryptor is a deterministic, reversible encryptor for tests. It
// prepends testHeader on Encrypt and checks and strips it on Decrypt. Unlock
// accepts only the passphrase given to Setup.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ pm.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a TestEncryptor that is already configured with an
// empty passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

// NewUnconfiguredTestEncryptor creates a TestEncryptor that requires Setup.
func NewUnconfiguredTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if !e.configured {
		return fmt.Errorf("test encryptor not configured")
	}
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (pm.DecryptionContext, error) {
	if passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext reverses TestEncryptor.Encrypt.
type TestDecryptionContext struct{}

var _ pm.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
