package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongkoo-kang/vibe-shoppingmall/models"
)

func TestIssueAndParseToken(t *testing.T) {
	user := &models.User{ID: 7, Email: "shopper@example.com", Role: models.RoleAdmin}

	token, err := IssueToken("secret", time.Hour, user)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "shopper@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: 7, Email: "shopper@example.com", Role: models.RoleCustomer}

	token, err := IssueToken("secret", time.Hour, user)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	user := &models.User{ID: 7, Email: "shopper@example.com", Role: models.RoleCustomer}

	token, err := IssueToken("secret", -time.Minute, user)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
