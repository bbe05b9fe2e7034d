package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-test-secret-key!"
	testIssuer   = "taskhub"
	testAudience = "taskhub-clients"
)

func newTestManager() *Manager {
	return NewManager(testSecret, testIssuer, testAudience, 7*24*time.Hour)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, expiresAt, err := m.Issue("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestIssue_UniqueJTI(t *testing.T) {
	m := newTestManager()

	t1, _, err := m.Issue("user-1", "alice")
	require.NoError(t, err)
	t2, _, err := m.Issue("user-1", "alice")
	require.NoError(t, err)

	c1, err := m.Verify(t1)
	require.NoError(t, err)
	c2, err := m.Verify(t2)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestVerify_FlippedSignature(t *testing.T) {
	m := newTestManager()

	token, _, err := m.Issue("user-1", "alice")
	require.NoError(t, err)

	// flip a character in the middle of the signature segment
	dot := strings.LastIndex(token, ".")
	sig := []byte(token[dot+1:])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	tampered := token[:dot+1] + string(sig)

	_, err = m.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager().WithClock(func() time.Time { return issuedAt })

	token, _, err := m.Issue("user-1", "alice")
	require.NoError(t, err)

	stillValid := m.WithClock(func() time.Time { return issuedAt.Add(7*24*time.Hour - time.Minute) })
	_, err = stillValid.Verify(token)
	require.NoError(t, err)

	later := m.WithClock(func() time.Time { return issuedAt.Add(7*24*time.Hour + time.Minute) })
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _, err := newTestManager().Issue("user-1", "alice")
	require.NoError(t, err)

	other := NewManager("another-secret-another-secret!!!", testIssuer, testAudience, time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuerOrAudience(t *testing.T) {
	token, _, err := newTestManager().Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = NewManager(testSecret, "someone-else", testAudience, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager(testSecret, testIssuer, "other-audience", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserID:   "user-1",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   "user-1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestManager().Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = newTestManager().Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := newTestManager().Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}
