package pm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pm-go/internal/pm"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		pw, err := pm.GeneratePassword()
		require.NoError(t, err)
		assert.Len(t, pw, pm.GeneratedPasswordLength)
		for _, c := range pw {
			assert.True(t, strings.ContainsRune(pm.PasswordCharset, c), "unexpected character %q", c)
		}
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 45, "generated passwords should practically never repeat")
}

func TestPasswordCharset(t *testing.T) {
	assert.Len(t, pm.PasswordCharset, 70)
	for _, c := range pm.PasswordCharset {
		assert.Equal(t, 1, strings.Count(pm.PasswordCharset, string(c)), "duplicate character %q", c)
	}
}
