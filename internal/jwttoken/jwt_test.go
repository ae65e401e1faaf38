package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestor/pkg/domain-errors"
	"attestor/pkg/testutil"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "attestor-test")
	addr := testutil.MustAddress("0x1000000000000000000000000000000000000001")

	token, err := svc.GenerateActorToken(addr, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestValidateToken_WrongKey(t *testing.T) {
	addr := testutil.MustAddress("0x1000000000000000000000000000000000000001")
	token, err := NewService("key-a", "attestor-test").GenerateActorToken(addr, time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-b", "attestor-test").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("test-signing-key", "attestor-test")
	addr := testutil.MustAddress("0x1000000000000000000000000000000000000001")

	token, err := svc.GenerateActorToken(addr, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewService("test-signing-key", "attestor-test")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
