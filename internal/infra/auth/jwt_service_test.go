package auth

import (
	"testing"
	"time"

	"velure/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test_access_secret_key_very_long_for_testing")

func TestJWTCodec_SignAndVerify(t *testing.T) {
	codec := NewJWTCodec()

	token, err := codec.Sign(&service.Claims{UserID: 7, Email: "ana@velure.dev", Role: "Ana"}, service.SignOptions{
		Secret:    testSecret,
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := codec.Verify(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana@velure.dev", claims.Email)
	assert.Equal(t, "Ana", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTCodec_ZeroExpiryOmitsExpClaim(t *testing.T) {
	codec := NewJWTCodec()

	token, err := codec.Sign(&service.Claims{UserID: 1}, service.SignOptions{Secret: testSecret})
	require.NoError(t, err)

	claims, err := codec.Verify(token, testSecret)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestJWTCodec_TokensAreUnique(t *testing.T) {
	codec := NewJWTCodec()
	claims := &service.Claims{UserID: 1, Email: "a@b.c"}
	opts := service.SignOptions{Secret: testSecret, ExpiresIn: time.Minute}

	first, err := codec.Sign(claims, opts)
	require.NoError(t, err)
	second, err := codec.Sign(claims, opts)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTCodec_RejectsWrongSecret(t *testing.T) {
	codec := NewJWTCodec()

	token, err := codec.Sign(&service.Claims{UserID: 1}, service.SignOptions{Secret: testSecret})
	require.NoError(t, err)

	claims, err := codec.Verify(token, []byte("another-secret"))
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTCodec_RejectsExpiredToken(t *testing.T) {
	signer := &jwtCodec{now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}

	token, err := signer.Sign(&service.Claims{UserID: 1}, service.SignOptions{Secret: testSecret, ExpiresIn: time.Hour})
	require.NoError(t, err)

	_, err = NewJWTCodec().Verify(token, testSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &service.Claims{UserID: 1}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewJWTCodec().Verify(token, testSecret)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &service.Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTCodec().Verify(unsigned, testSecret)
	assert.Error(t, err)
}

func TestJWTCodec_RejectsMalformedToken(t *testing.T) {
	claims, err := NewJWTCodec().Verify("clearly-not-a-jwt-token-format", testSecret)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTCodec_EmptySecret(t *testing.T) {
	codec := NewJWTCodec()

	_, err := codec.Sign(&service.Claims{UserID: 1}, service.SignOptions{})
	assert.ErrorIs(t, err, ErrEmptySigningKey)

	_, err = codec.Verify("a.b.c", nil)
	assert.ErrorIs(t, err, ErrEmptySigningKey)
}
