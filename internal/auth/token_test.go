package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret")

	raw, err := tokens.Issue(42, "alice")
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewTokens("secret").Issue(1, "alice")
	require.NoError(t, err)

	_, err = NewTokens("other").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokens("secret").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokens("secret").Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
