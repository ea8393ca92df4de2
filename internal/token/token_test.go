package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newCodec() *Codec {
	return &Codec{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	c := newCodec()

	raw, err := c.IssueRefreshToken("uid-1", "user", 7)
	require.NoError(t, err)

	claims, err := c.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, "uid-1", claims.UID)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, 7, claims.TokenVersion)
}

func TestAccessRoundTrip(t *testing.T) {
	c := newCodec()

	raw, err := c.IssueAccessToken("uid-1", "admin")
	require.NoError(t, err)

	claims, err := c.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, "uid-1", claims.UID)
	require.Equal(t, "admin", claims.Role)
}

func TestExpiredRefresh(t *testing.T) {
	c := newCodec()
	c.Now = func() time.Time { return time.Now().Add(-RefreshTTL - time.Minute) }

	raw, err := c.IssueRefreshToken("uid-1", "user", 0)
	require.NoError(t, err)

	_, err = c.VerifyRefresh(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestExpiredAccess(t *testing.T) {
	c := newCodec()
	c.Now = func() time.Time { return time.Now().Add(-AccessTTL - time.Minute) }

	raw, err := c.IssueAccessToken("uid-1", "user")
	require.NoError(t, err)

	_, err = c.VerifyAccess(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestBadSignature(t *testing.T) {
	c := newCodec()

	raw, err := c.IssueRefreshToken("uid-1", "user", 0)
	require.NoError(t, err)

	other := &Codec{AccessSecret: []byte("x"), RefreshSecret: []byte("different")}
	_, err = other.VerifyRefresh(raw)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestSecretsNotInterchangeable(t *testing.T) {
	c := newCodec()

	raw, err := c.IssueAccessToken("uid-1", "user")
	require.NoError(t, err)

	_, err = c.VerifyRefresh(raw)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestMissingToken(t *testing.T) {
	c := newCodec()

	_, err := c.VerifyRefresh("")
	require.ErrorIs(t, err, ErrTokenMissing)
}

func TestMalformedToken(t *testing.T) {
	c := newCodec()

	_, err := c.VerifyRefresh("not.a.jwt")
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, err = c.VerifyAccess("garbage")
	require.ErrorIs(t, err, ErrTokenMalformed)
}
