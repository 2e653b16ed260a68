package service

import (
	"context"
	"testing"
	"time"

	"agency_backend/platform/apperr"
	"agency_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct{ hash string }

func (testConfig) GetJWTAccessSecret() string       { return "secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }
func (testConfig) GetAdminEmail() string            { return "agence@example.com" }
func (c testConfig) GetAdminPasswordHash() string   { return c.hash }

func newService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := New(testConfig{hash: string(hash)}, logger.Discard())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestSignInIssuesAdminAccessToken(t *testing.T) {
	svc := newService(t)
	svc.now = time.Now

	raw, expiresAt, err := svc.SignIn(context.Background(), " Agence@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	assert.Equal(t, "agence@example.com", claims["sub"])
	assert.Equal(t, "access", claims["type"])
	assert.Equal(t, []any{"admin"}, claims["roles"])
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.SignIn(context.Background(), "agence@example.com", "wrong")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, _, err = svc.SignIn(context.Background(), "someone@example.com", "correct horse")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
