package tokens

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{6}$`)
	for i := 0; i < 50; i++ {
		c, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, re, c)
	}
}

func TestOpaqueAndHash(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	require.NoError(t, err)
	b, _ := GenerateOpaqueToken(32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, SHA256Base64URL(a), SHA256Base64URL(a))
	assert.NotEqual(t, SHA256Base64URL(a), SHA256Base64URL(b))
	assert.Len(t, SHA256Hex("x"), 64)
}
