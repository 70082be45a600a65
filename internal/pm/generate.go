package pm

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// PasswordCharset is the alphabet generated passwords are drawn from.
	PasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

	// GeneratedPasswordLength is the length of a generated password.
	GeneratedPasswordLength = 16
)

// GeneratePassword returns a random password of GeneratedPasswordLength
// characters, each drawn independently and uniformly from PasswordCharset.
func GeneratePassword() (string, error) {
	limit := big.NewInt(int64(len(PasswordCharset)))
	buf := make([]byte, GeneratedPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating password: %w", err)
		}
		buf[i] = PasswordCharset[n.Int64()]
	}
	return string(buf), nil
}
