package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, AudienceCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subjectID, audience, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), subjectID)
	assert.Equal(t, AudienceCustomer, audience)
}

func TestAudienceRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, AudienceStaff)
	require.NoError(t, err)

	_, audience, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, AudienceStaff, audience)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, _, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, _, err = ValidateToken("")
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": float64(1),
		"aud": AudienceCustomer,
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	require.NoError(t, err)

	_, _, err = ValidateToken(expired)
	assert.Error(t, err)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": float64(1),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, _, err = ValidateToken(forged)
	assert.Error(t, err)
}

func TestMissingAudienceDefaultsToCustomer(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": float64(5),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	require.NoError(t, err)

	subjectID, audience, err := ValidateToken(legacy)
	require.NoError(t, err)
	assert.Equal(t, int64(5), subjectID)
	assert.Equal(t, AudienceCustomer, audience)
}
