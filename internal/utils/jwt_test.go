package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken("test-secret", userID, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.Error(t, err)
}
