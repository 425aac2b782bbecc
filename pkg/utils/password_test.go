package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	defer func() { PasswordCost = bcrypt.DefaultCost }()

	hash, err := HashPassword("harvest-2024")
	require.NoError(t, err)
	assert.NotEqual(t, "harvest-2024", hash)
	assert.True(t, CheckPassword("harvest-2024", hash))
	assert.False(t, CheckPassword("harvest-2025", hash))
	assert.False(t, CheckPassword("harvest-2024", ""))
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.Error(t, err)
}
