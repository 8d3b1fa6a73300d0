package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomTokenRoundTrip(t *testing.T) {
	Init()

	token, err := CreateRoomToken("ABC123", "client-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	roomCode, clientID, err := VerifyRoomToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", roomCode)
	assert.Equal(t, "client-42", clientID)
}

func TestRoomTokenRejectsTampering(t *testing.T) {
	Init()

	token, err := CreateRoomToken("ABC123", "client-42")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, _, err = VerifyRoomToken(tampered)
	assert.Error(t, err)

	_, _, err = VerifyRoomToken("not-a-token")
	assert.Error(t, err)
}

func TestRoomTokenInvalidAfterKeyRotation(t *testing.T) {
	Init()
	token, err := CreateRoomToken("ABC123", "client-42")
	require.NoError(t, err)

	// A restart generates a fresh key pair; old tokens must not verify.
	Init()
	_, _, err = VerifyRoomToken(token)
	assert.Error(t, err)
}
