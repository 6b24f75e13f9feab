package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestTokenVerifierVerify(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	first, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", first.OwnerID)
	assert.Equal(t, "u1", first.Claims["user_id"])

	second, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, first.OwnerID, second.OwnerID, "verification is deterministic")
}

func TestTokenVerifierRejects(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)
	hour := time.Hour

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "missing",
			token: "",
			want:  ErrMissingCredential,
		},
		{
			name:  "malformed",
			token: "not-a-jwt",
			want:  ErrInvalidCredential,
		},
		{
			name:  "wrong secret",
			token: signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u1"}),
			want:  ErrInvalidCredential,
		},
		{
			name:  "expired",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-hour).Unix()}),
			want:  ErrInvalidCredential,
		},
		{
			name:  "unsigned",
			token: signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": "u1"}),
			want:  ErrInvalidCredential,
		},
		{
			name:  "missing owner claim",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1"}),
			want:  ErrInvalidCredential,
		},
		{
			name:  "non-string owner claim",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": 42}),
			want:  ErrInvalidCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := verifier.Verify(tt.token)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenVerifierTampered(t *testing.T) {
	verifier := NewTokenVerifier(testSecret)
	genuine := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "u1"})
	forged := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u2"})

	// u2's header and payload carrying u1's signature
	g := strings.Split(genuine, ".")
	f := strings.Split(forged, ".")
	require.Len(t, g, 3)
	require.Len(t, f, 3)
	tampered := strings.Join([]string{f[0], f[1], g[2]}, ".")

	_, err := verifier.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
