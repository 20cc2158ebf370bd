package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var account = id.DeriveAccountID("owner")
var expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(account, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.String(), claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateAccessToken_ZeroAccount(t *testing.T) {
	_, err := jwtService.GenerateAccessToken(id.AccountID{}, expiresIn)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeInvalidInput, ""))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(account, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience")
	token, err := other.GenerateAccessToken(account, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "someone-else")
	token, err := other.GenerateAccessToken(account, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  account.String(),
			Issuer:   "test-issuer",
			Audience: []string{"test-audience"},
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
}

func Test_ValidateToken_RequiresExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  account.String(),
			Issuer:   "test-issuer",
			Audience: []string{"test-audience"},
			ID:       "no-exp",
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ExtractAccountID(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(account, expiresIn)
	require.NoError(t, err)

	got, err := jwtService.ExtractAccountID(token)
	require.NoError(t, err)
	assert.Equal(t, account, got)
}

func Test_ExtractAccountID_BadSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-an-account",
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ExtractAccountID(signed)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))

	_, err = NewJWTServiceAdapter(jwtService).ValidateToken(signed)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
}

func Test_Adapter(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(account, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account, claims.Account)
	assert.NotEmpty(t, claims.JTI)
}
