package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	ts, err := NewHS256Service("secret", "urlindex", time.Hour)
	require.NoError(t, err)

	token, err := ts.Sign("42", "")
	require.NoError(t, err)

	c, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", c.UserID)
	assert.Equal(t, RoleUser, c.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt, 5*time.Second)
	assert.Equal(t, time.Hour, ts.TTL())
}

func TestVerifyRejections(t *testing.T) {
	ts, err := NewHS256Service("secret", "urlindex", time.Hour)
	require.NoError(t, err)

	other, _ := NewHS256Service("secret", "someone-else", time.Hour)
	foreign, _ := other.Sign("1", RoleAdmin)
	_, err = ts.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Role: RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "urlindex",
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	raw, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ts.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = ts.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityID(t *testing.T) {
	id, err := Identity{UserID: "7"}.ID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := Identity{UserID: bad}.ID()
		assert.ErrorIs(t, err, ErrBadSubject, bad)
	}
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
}
