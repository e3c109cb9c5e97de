package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenService(ttl time.Duration, now time.Time) *Service {
	return &Service{
		Secret:    []byte("test-secret"),
		Issuer:    "backend-eco",
		AccessTTL: ttl,
		Now:       func() time.Time { return now },
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := tokenService(15*time.Minute, time.Now())

	token, err := svc.signAccessToken("user-123")
	require.NoError(t, err)

	subject, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", subject)
}

func TestExpiredTokenRejected(t *testing.T) {
	issued := tokenService(time.Minute, time.Now().Add(-time.Hour))
	token, err := issued.signAccessToken("user-123")
	require.NoError(t, err)

	verifier := tokenService(time.Minute, time.Now())
	_, err = verifier.ParseAccessToken(token)
	require.Error(t, err)
}

func TestTokenFromDifferentSecretRejected(t *testing.T) {
	svc := tokenService(15*time.Minute, time.Now())
	token, err := svc.signAccessToken("user-123")
	require.NoError(t, err)

	other := tokenService(15*time.Minute, time.Now())
	other.Secret = []byte("other-secret")
	_, err = other.ParseAccessToken(token)
	require.Error(t, err)
}

func TestEmptyTokenRejected(t *testing.T) {
	svc := tokenService(15*time.Minute, time.Now())
	_, err := svc.ParseAccessToken("   ")
	require.Error(t, err)
}

func TestReferralCodeShape(t *testing.T) {
	code, err := newReferralCode()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(code, "ECO-"))
	require.Len(t, code, len("ECO-")+8)

	again, err := newReferralCode()
	require.NoError(t, err)
	require.NotEqual(t, code, again)
}
