package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	first, err := HashPassword("p", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("p", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "p", first)
	assert.NotEqual(t, first, second, "hashes must be salted per call")
	assert.True(t, CheckPasswordHash("p", first))
	assert.True(t, CheckPasswordHash("p", second))
	assert.False(t, CheckPasswordHash("wrong", first))
	assert.False(t, CheckPasswordHash("p", "not-a-hash"))
}

func TestHashPasswordRejectsOversizedInput(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := HashPassword(string(long), bcrypt.MinCost)
	assert.Error(t, err)
}
