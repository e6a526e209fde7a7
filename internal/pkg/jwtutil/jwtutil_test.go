package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndDecode(t *testing.T) {
	token, err := GenerateToken(secret, time.Hour, 7, "ada", []uint{4, 2, 4})
	require.NoError(t, err)

	claims, err := Decode(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ada", claims.Name)
	assert.Equal(t, "2,4", claims.LikedAPIs)
	assert.Equal(t, []uint{2, 4}, claims.LikedSet())
	assert.True(t, claims.HasLiked(4))
	assert.False(t, claims.HasLiked(3))
}

func TestDecodeWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", time.Hour, 1, "a", nil)
	require.NoError(t, err)

	for _, other := range []string{"secret-b", "", "secret-a "} {
		_, err := Decode(token, other)
		assert.ErrorIs(t, err, ErrInvalidSignature, "secret %q", other)
	}
}

func TestDecodeExpired(t *testing.T) {
	token, err := GenerateToken(secret, -time.Minute, 1, "a", nil)
	require.NoError(t, err)

	_, err = Decode(token, secret)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: 1}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Decode(none, secret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = Decode(hs512, secret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("not-a-token", secret)
	assert.ErrorIs(t, err, ErrMalformed)

	token, err := Encode(Claims{Name: "anonymous"}, secret)
	require.NoError(t, err)
	_, err = Decode(token, secret)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEmptyLikedSetNeverMatches(t *testing.T) {
	token, err := GenerateToken(secret, time.Hour, 3, "b", nil)
	require.NoError(t, err)

	claims, err := Decode(token, secret)
	require.NoError(t, err)
	assert.Empty(t, claims.LikedAPIs)
	assert.Nil(t, claims.LikedSet())
	for _, id := range []uint{0, 1, 2, 100} {
		assert.False(t, claims.HasLiked(id))
	}
}

func TestParseLikedSet(t *testing.T) {
	tests := []struct {
		raw  string
		want []uint
	}{
		{"", nil},
		{" , ,", nil},
		{"1,2,3", []uint{1, 2, 3}},
		{"3, 1 ,3,x,0,2", []uint{3, 1, 2}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLikedSet(tt.raw), tt.raw)
	}
}

func TestJoinLikedSet(t *testing.T) {
	assert.Equal(t, "", JoinLikedSet(nil))
	assert.Equal(t, "1,5,9", JoinLikedSet([]uint{9, 1, 5, 1, 0}))
}
