package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	return &Session{
		AccessToken: "token-abc123",
		Identity:    Identity{ID: "u1", Email: "a@example.com", CreatedAt: time.Unix(1700000000, 0).UTC()},
		ExpiresAt:   time.Unix(1702592000, 0).UTC(),
	}
}

func TestSealOpenSessionRoundTrip(t *testing.T) {
	key := deriveKey("test-passphrase")

	sealed, err := sealSession(testSession(), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token-abc123")
	assert.NotContains(t, sealed, "a@example.com")

	opened, err := openSession(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, testSession(), opened)
}

func TestOpenSessionWithWrongKey(t *testing.T) {
	sealed, err := sealSession(testSession(), deriveKey("right"))
	require.NoError(t, err)

	_, err = openSession(sealed, deriveKey("wrong"))
	assert.Error(t, err)
}

func TestOpenSessionRejectsTampering(t *testing.T) {
	key := deriveKey("test-passphrase")
	sealed, err := sealSession(testSession(), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = openSession(tampered, key)
	assert.Error(t, err)
}

func TestOpenSessionGarbage(t *testing.T) {
	key := deriveKey("test-passphrase")

	_, err := openSession("not base64!!!", key)
	assert.Error(t, err)

	// Valid base64 but shorter than a GCM nonce
	_, err = openSession(base64.StdEncoding.EncodeToString([]byte("short")), key)
	assert.Error(t, err)
}

func TestDeriveKeyLength(t *testing.T) {
	assert.Len(t, deriveKey(""), 32)
	assert.Len(t, deriveKey("short"), 32)
	assert.Len(t, deriveKey("a passphrase much longer than thirty-two bytes in total"), 32)
}
