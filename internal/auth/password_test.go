package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-9")
	require.NoError(t, err)
	assert.NotEqual(t, "Correct-Horse-9", hash)

	assert.True(t, VerifyPassword(hash, "Correct-Horse-9"))
	assert.False(t, VerifyPassword(hash, "correct-horse-9"))
	assert.False(t, VerifyPassword("", "Correct-Horse-9"))
}
