package session

import (
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"golang.org/x/oauth2"
)

// TokenSource exposes the session's current access token to oauth2-aware code such as
// oauth2.NewClient. It never refreshes on its own; refresh stays with the client pipeline.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	creds, ok := ts.store.Credentials()
	if !ok || creds.AccessToken == "" {
		return nil, autherrors.ErrNotAuthorized
	}
	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: creds.RefreshToken,
	}
	if claims, ok := ts.store.CurrentClaims(); ok {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
