package session

import (
	"sync"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token/jwt"
)

// ClaimsDecoder turns an access token into claims. It must not panic; malformed input yields false.
type ClaimsDecoder interface {
	Decode(accessToken string) (*jwt.Claims, bool)
}

// State is a point-in-time copy of the session.
type State struct {
	Credentials     *Credentials
	User            *UserProfile
	RefreshInFlight *Flight[Credentials]
	LogoutInFlight  *Flight[struct{}]
}

// Store owns the session state. Every read and write goes through a single lock so no caller
// ever observes a partially applied change.
type Store struct {
	mu      sync.RWMutex
	decoder ClaimsDecoder

	creds *Credentials
	user  *UserProfile

	// epoch changes whenever credentials are replaced or cleared, so a refresh that started
	// before a sign-in or logout does not overwrite the newer state when it settles.
	epoch        uint64
	refresh      *Flight[Credentials]
	refreshEpoch uint64
	logout       *Flight[struct{}]
}

// NewStore creates an empty, unauthenticated session. A nil decoder uses jwt.NewDecoder().
func NewStore(decoder ClaimsDecoder) *Store {
	if decoder == nil {
		decoder = jwt.NewDecoder()
	}
	return &Store{decoder: decoder}
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{RefreshInFlight: s.refresh, LogoutInFlight: s.logout}
	if s.creds != nil {
		c := *s.creds
		st.Credentials = &c
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// SetCredentials replaces the credentials. nil signs the session out without touching the user.
func (s *Store) SetCredentials(creds *Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCredentials(creds)
}

// SetUser replaces the user profile.
func (s *Store) SetUser(user *UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return
	}
	u := *user
	s.user = &u
}

// Invalidate clears credentials and user together.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
}

// IsAuthorized reports whether credentials with a non-empty access token are present.
func (s *Store) IsAuthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthorized()
}

// Credentials returns a copy of the current credentials.
func (s *Store) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// User returns a copy of the current user profile.
func (s *Store) User() (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return UserProfile{}, false
	}
	return *s.user, true
}

// CurrentClaims decodes the current access token. It is absent when unauthorized or when the
// token cannot be decoded.
func (s *Store) CurrentClaims() (*jwt.Claims, bool) {
	_, claims, ok := s.AccessClaims()
	return claims, ok
}

// AccessClaims is CurrentClaims together with the access token the claims were decoded from.
func (s *Store) AccessClaims() (accessToken string, claims *jwt.Claims, ok bool) {
	s.mu.RLock()
	if !s.isAuthorized() {
		s.mu.RUnlock()
		return "", nil, false
	}
	token := s.creds.AccessToken
	s.mu.RUnlock()

	claims, ok = s.decoder.Decode(token)
	if !ok {
		return "", nil, false
	}
	return token, claims, true
}

// RefreshInFlight returns the outstanding refresh, or nil.
func (s *Store) RefreshInFlight() *Flight[Credentials] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// LogoutInFlight returns the outstanding logout, or nil.
func (s *Store) LogoutInFlight() *Flight[struct{}] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logout
}

// BeginRefresh is the check-and-publish step of the refresh single-flight. When a refresh is
// already outstanding it is returned with started=false. Otherwise a new flight is published
// and returned with started=true together with the refresh token to send; the caller must
// eventually pass the flight to CompleteRefresh. With no credentials and nothing outstanding
// it returns a nil flight.
func (s *Store) BeginRefresh() (flight *Flight[Credentials], refreshToken string, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh != nil {
		return s.refresh, "", false
	}
	if s.creds == nil {
		return nil, "", false
	}
	s.refresh = newFlight[Credentials]()
	s.refreshEpoch = s.epoch
	return s.refresh, s.creds.RefreshToken, true
}

// BeginRefreshIfCurrent is BeginRefresh for a caller that found staleAccessToken unusable. An
// outstanding refresh is joined. A new one is started only while the session still holds
// staleAccessToken; once the token has been replaced (or cleared) it returns a nil flight and the
// caller should use the current credentials instead.
func (s *Store) BeginRefreshIfCurrent(staleAccessToken string) (flight *Flight[Credentials], refreshToken string, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh != nil {
		return s.refresh, "", false
	}
	if s.creds == nil || s.creds.AccessToken != staleAccessToken {
		return nil, "", false
	}
	s.refresh = newFlight[Credentials]()
	s.refreshEpoch = s.epoch
	return s.refresh, s.creds.RefreshToken, true
}

// CompleteRefresh settles a flight obtained from BeginRefresh. On success the credentials are
// replaced, on failure the session is invalidated. The state change is applied before any
// waiter is released.
func (s *Store) CompleteRefresh(flight *Flight[Credentials], creds Credentials, err error) {
	s.mu.Lock()
	if s.refresh != flight {
		s.mu.Unlock()
		flight.settle(creds, err)
		return
	}
	s.refresh = nil

	if s.epoch != s.refreshEpoch {
		// Signed in again or logged out while the call was outstanding: keep the newer state.
		if s.isAuthorized() {
			creds, err = *s.creds, nil
		} else {
			creds, err = Credentials{}, autherrors.ErrNotAuthorized
		}
	} else if err == nil {
		s.setCredentials(&creds)
	} else {
		s.invalidate()
	}
	s.mu.Unlock()

	flight.settle(creds, err)
}

// BeginLogout is the check-and-publish step of the logout single-flight.
func (s *Store) BeginLogout() (flight *Flight[struct{}], started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logout != nil {
		return s.logout, false
	}
	s.logout = newFlight[struct{}]()
	return s.logout, true
}

// CompleteLogout clears the session regardless of err and releases every waiter.
func (s *Store) CompleteLogout(flight *Flight[struct{}], err error) {
	s.mu.Lock()
	if s.logout != flight {
		s.mu.Unlock()
		flight.settle(struct{}{}, err)
		return
	}
	s.logout = nil
	s.invalidate()
	s.mu.Unlock()

	flight.settle(struct{}{}, err)
}

func (s *Store) isAuthorized() bool {
	return s.creds != nil && s.creds.AccessToken != ""
}

func (s *Store) setCredentials(creds *Credentials) {
	s.epoch++
	if creds == nil {
		s.creds = nil
		return
	}
	c := *creds
	s.creds = &c
}

func (s *Store) invalidate() {
	s.epoch++
	s.creds = nil
	s.user = nil
}
