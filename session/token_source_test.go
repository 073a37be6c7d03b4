package session_test

import (
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt/jwtfake"
	"github.com/stretchr/testify/require"
)

func TestTokenSourceUnauthorized(t *testing.T) {
	_, err := session.NewStore(nil).TokenSource().Token()
	require.ErrorIs(t, err, autherrors.ErrNotAuthorized)
}

func TestTokenSourceFollowsStore(t *testing.T) {
	s := session.NewStore(nil)
	ts := s.TokenSource()

	exp := time.Now().Add(time.Hour)
	access := jwtfake.AccessToken("user-1", exp)
	s.SetCredentials(&session.Credentials{AccessToken: access, RefreshToken: "R1"})

	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, access, tok.AccessToken)
	require.Equal(t, "R1", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, exp.Unix(), tok.Expiry.Unix())
	require.True(t, tok.Valid())

	s.SetCredentials(&session.Credentials{AccessToken: "opaque", RefreshToken: "R2"})
	tok, err = ts.Token()
	require.NoError(t, err)
	require.Equal(t, "opaque", tok.AccessToken)
	require.True(t, tok.Expiry.IsZero())
}
