package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/table-reservation/internal/model"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	id := model.Identity{ID: 42, Email: "a@b.io", Role: model.RoleAdmin}
	at, err := NewAccessToken(testSecret, id, time.Hour, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)

	got, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, model.Identity{ID: 1, Role: model.RoleUser}, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseAccessToken("other", at.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenRejectsExpired(t *testing.T) {
	at, err := NewAccessToken(testSecret, model.Identity{ID: 1, Role: model.RoleUser}, time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, at.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{ID: 1, Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, none)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, hs512)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenRequiresExpiry(t *testing.T) {
	claims := Claims{ID: 1, Role: model.RoleUser}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rt, err := NewRefreshToken(24*time.Hour, now)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Equal(t, now.Add(24*time.Hour), rt.Exp)

	h := HashRefreshRaw(rt.Raw)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, h, HashRefreshRaw(rt.Raw+"x"))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", h)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))
}
