package storage

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedPathRoundTrip(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Hour)

	path := signer.SignedPath("abc123.png")
	key, exp, sig := splitSignedPath(t, path)

	require.Equal(t, "abc123.png", key)
	assert.NoError(t, signer.Verify(key, exp, sig))
}

func TestVerifyRejectsTamperedKey(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Hour)

	_, exp, sig := splitSignedPath(t, signer.SignedPath("abc123.png"))

	err := signer.Verify("other-key.png", exp, sig)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsTamperedExpiry(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Hour)

	key, _, sig := splitSignedPath(t, signer.SignedPath("abc123.png"))

	// pushing the expiry forward invalidates the signature
	forged := fmt.Sprintf("%d", time.Now().Add(48*time.Hour).Unix())
	assert.ErrorIs(t, signer.Verify(key, forged, sig), ErrBadSignature)
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewURLSigner("test-secret", -time.Minute)

	key, exp, sig := splitSignedPath(t, signer.SignedPath("abc123.png"))
	assert.ErrorIs(t, signer.Verify(key, exp, sig), ErrBadSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Hour)
	other := NewURLSigner("rotated-secret", time.Hour)

	key, exp, sig := splitSignedPath(t, signer.SignedPath("abc123.png"))
	assert.ErrorIs(t, other.Verify(key, exp, sig), ErrBadSignature)
}

func TestVerifyRejectsMalformedExpiry(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Hour)
	assert.ErrorIs(t, signer.Verify("abc", "not-a-number", "sig"), ErrBadSignature)
}

func splitSignedPath(t *testing.T, path string) (key, exp, sig string) {
	t.Helper()
	u, err := url.Parse(path)
	require.NoError(t, err)
	key = strings.TrimPrefix(u.Path, "/files/")
	return key, u.Query().Get("exp"), u.Query().Get("sig")
}
