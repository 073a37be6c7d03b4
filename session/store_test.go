package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt/jwtfake"
	"github.com/stretchr/testify/require"
)

var (
	testCreds = session.Credentials{AccessToken: "A1", RefreshToken: "R1"}
	testUser  = session.UserProfile{ID: "user-1", Username: "jdoe", Email: "john.doe@example.com"}
)

func signedInStore(t *testing.T) *session.Store {
	t.Helper()
	s := session.NewStore(nil)
	s.SetCredentials(&testCreds)
	s.SetUser(&testUser)
	return s
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := session.NewStore(nil)

	st := s.Snapshot()
	require.Nil(t, st.Credentials)
	require.Nil(t, st.User)
	require.Nil(t, st.RefreshInFlight)
	require.Nil(t, st.LogoutInFlight)
	require.False(t, s.IsAuthorized())

	_, ok := s.CurrentClaims()
	require.False(t, ok)
}

func TestIsAuthorized(t *testing.T) {
	s := session.NewStore(nil)

	s.SetCredentials(&session.Credentials{RefreshToken: "R1"})
	require.False(t, s.IsAuthorized(), "empty access token is not authorized")

	s.SetCredentials(&testCreds)
	require.True(t, s.IsAuthorized())

	s.SetCredentials(nil)
	require.False(t, s.IsAuthorized())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := signedInStore(t)

	st := s.Snapshot()
	st.Credentials.AccessToken = "tampered"
	st.User.Username = "tampered"

	creds, ok := s.Credentials()
	require.True(t, ok)
	require.Equal(t, "A1", creds.AccessToken)
	user, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "jdoe", user.Username)
}

func TestSetCredentialsCopiesInput(t *testing.T) {
	s := session.NewStore(nil)
	c := session.Credentials{AccessToken: "A1", RefreshToken: "R1"}
	s.SetCredentials(&c)
	c.AccessToken = "changed"

	creds, _ := s.Credentials()
	require.Equal(t, "A1", creds.AccessToken)
}

func TestInvalidateClearsCredentialsAndUser(t *testing.T) {
	s := signedInStore(t)
	s.Invalidate()

	_, ok := s.Credentials()
	require.False(t, ok)
	_, ok = s.User()
	require.False(t, ok)
}

func TestCurrentClaims(t *testing.T) {
	s := session.NewStore(nil)
	exp := time.Now().Add(time.Hour)
	s.SetCredentials(&session.Credentials{AccessToken: jwtfake.AccessToken("user-1", exp), RefreshToken: "R1"})

	claims, ok := s.CurrentClaims()
	require.True(t, ok)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())

	s.SetCredentials(&session.Credentials{AccessToken: "not-a-jwt", RefreshToken: "R1"})
	_, ok = s.CurrentClaims()
	require.False(t, ok, "decode failure yields absent claims")
	require.True(t, s.IsAuthorized(), "decode failure does not change authorization")
}

func TestBeginRefreshWithoutCredentials(t *testing.T) {
	s := session.NewStore(nil)

	f, _, started := s.BeginRefresh()
	require.Nil(t, f)
	require.False(t, started)
}

func TestBeginRefreshJoinsOutstanding(t *testing.T) {
	s := signedInStore(t)

	f1, rt, started := s.BeginRefresh()
	require.True(t, started)
	require.Equal(t, "R1", rt)
	require.Same(t, f1, s.RefreshInFlight())

	f2, rt2, started2 := s.BeginRefresh()
	require.False(t, started2)
	require.Empty(t, rt2)
	require.Same(t, f1, f2)
}

func TestBeginRefreshIfCurrent(t *testing.T) {
	s := signedInStore(t)

	f, rt, started := s.BeginRefreshIfCurrent("A0")
	require.Nil(t, f, "token already replaced")
	require.Empty(t, rt)
	require.False(t, started)
	require.Nil(t, s.RefreshInFlight())

	f1, rt, started := s.BeginRefreshIfCurrent("A1")
	require.True(t, started)
	require.Equal(t, "R1", rt)

	// Outstanding flights are joined whatever token the caller holds.
	f2, _, started := s.BeginRefreshIfCurrent("A0")
	require.False(t, started)
	require.Same(t, f1, f2)

	s.CompleteRefresh(f1, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, nil)
	f3, _, _ := s.BeginRefreshIfCurrent("A1")
	require.Nil(t, f3)

	s.Invalidate()
	f4, _, _ := s.BeginRefreshIfCurrent("A2")
	require.Nil(t, f4)
}

func TestAccessClaims(t *testing.T) {
	s := session.NewStore(nil)
	_, _, ok := s.AccessClaims()
	require.False(t, ok)

	token := jwtfake.AccessToken("user-1", time.Now().Add(time.Hour))
	s.SetCredentials(&session.Credentials{AccessToken: token, RefreshToken: "R1"})
	got, claims, ok := s.AccessClaims()
	require.True(t, ok)
	require.Equal(t, token, got)
	require.Equal(t, "user-1", claims.Subject)
}

func TestBeginRefreshIsSingleFlightUnderContention(t *testing.T) {
	s := signedInStore(t)

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
		flights = make(map[*session.Flight[session.Credentials]]struct{})
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			f, _, ok := s.BeginRefresh()
			mu.Lock()
			defer mu.Unlock()
			flights[f] = struct{}{}
			if ok {
				started++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, started)
	require.Len(t, flights, 1)
}

func TestCompleteRefreshSuccess(t *testing.T) {
	s := signedInStore(t)
	f, _, _ := s.BeginRefresh()

	next := session.Credentials{AccessToken: "A2", RefreshToken: "R2"}
	s.CompleteRefresh(f, next, nil)

	require.True(t, f.Settled())
	require.Nil(t, s.RefreshInFlight())
	creds, ok := s.Credentials()
	require.True(t, ok)
	require.Equal(t, next, creds)
	_, ok = s.User()
	require.True(t, ok, "user survives a refresh")

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, next, got)
}

func TestCompleteRefreshFailureInvalidates(t *testing.T) {
	s := signedInStore(t)
	f, _, _ := s.BeginRefresh()

	refreshErr := errors.New("status 400")
	s.CompleteRefresh(f, session.Credentials{}, refreshErr)

	require.Nil(t, s.RefreshInFlight())
	require.False(t, s.IsAuthorized())
	_, ok := s.User()
	require.False(t, ok)

	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, refreshErr)

	f2, _, started := s.BeginRefresh()
	require.Nil(t, f2)
	require.False(t, started, "nothing to refresh once invalidated")
}

func TestWaitersObserveStateBeforeResuming(t *testing.T) {
	s := signedInStore(t)
	f, _, _ := s.BeginRefresh()

	const n = 8
	seen := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-f.Done()
			creds, _ := s.Credentials()
			seen <- creds.AccessToken
		}()
	}

	s.CompleteRefresh(f, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, nil)
	wg.Wait()
	close(seen)
	for token := range seen {
		require.Equal(t, "A2", token)
	}
}

func TestRefreshDoesNotOverwriteNewerSignIn(t *testing.T) {
	s := signedInStore(t)
	f, _, _ := s.BeginRefresh()

	fresh := session.Credentials{AccessToken: "B1", RefreshToken: "S1"}
	s.SetCredentials(&fresh)
	s.CompleteRefresh(f, session.Credentials{}, errors.New("refresh token rotated"))

	creds, ok := s.Credentials()
	require.True(t, ok)
	require.Equal(t, fresh, creds)

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, got)
}

func TestRefreshDoesNotResurrectLoggedOutSession(t *testing.T) {
	s := signedInStore(t)
	f, _, _ := s.BeginRefresh()

	s.Invalidate()
	s.CompleteRefresh(f, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, nil)

	require.False(t, s.IsAuthorized())
	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, autherrors.ErrNotAuthorized)
}

func TestLogoutFlight(t *testing.T) {
	s := signedInStore(t)

	f1, started := s.BeginLogout()
	require.True(t, started)
	f2, started2 := s.BeginLogout()
	require.False(t, started2)
	require.Same(t, f1, f2)
	require.Same(t, f1, s.LogoutInFlight())

	s.CompleteLogout(f1, errors.New("network down"))

	require.True(t, f1.Settled())
	require.Nil(t, s.LogoutInFlight())
	require.False(t, s.IsAuthorized())
	_, ok := s.User()
	require.False(t, ok)
}

func TestCompleteWithForeignFlightStillSettles(t *testing.T) {
	s := signedInStore(t)
	stale, _, _ := s.BeginRefresh()
	s.CompleteRefresh(stale, session.Credentials{AccessToken: "A2", RefreshToken: "R2"}, nil)

	current, _, _ := s.BeginRefresh()
	s.CompleteRefresh(stale, session.Credentials{}, errors.New("late duplicate"))

	require.Same(t, current, s.RefreshInFlight(), "a stale flight cannot clear the current handle")
	creds, _ := s.Credentials()
	require.Equal(t, "A2", creds.AccessToken)
}
