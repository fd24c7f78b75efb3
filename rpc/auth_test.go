package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixAuthRoundTrip(t *testing.T) {
	original := UnixAuth{
		Stamp:       12345,
		MachineName: "client.example.com",
		UID:         1000,
		GID:         1000,
		GIDs:        []uint32{4, 24, 27, 30},
	}
	cred, err := original.ToCredential()
	require.NoError(t, err)
	assert.Equal(t, AuthFlavorUnix, cred.Flavor)

	parsed, err := ParseUnixAuth(cred.Body)
	require.NoError(t, err)
	assert.Equal(t, original.Stamp, parsed.Stamp)
	assert.Equal(t, original.MachineName, parsed.MachineName)
	assert.Equal(t, original.UID, parsed.UID)
	assert.Equal(t, original.GID, parsed.GID)
	assert.Equal(t, original.GIDs, parsed.GIDs)
}

func TestUnixAuthRejectsTooManyGroups(t *testing.T) {
	gids := make([]uint32, MaxGIDs+1)
	auth := UnixAuth{MachineName: "h", GIDs: gids}
	_, err := auth.ToCredential()
	require.Error(t, err)
}

func TestNullCredentialBuilder(t *testing.T) {
	b := NewNullCredentialBuilder()
	cred, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, AuthFlavorNull, cred.Flavor)
	assert.Empty(t, cred.Body)
}
