package auth

import (
	"context"
	"fmt"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/session"
)

// RefreshFunc exchanges a refresh token for a new credential pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (session.Credentials, error)

// RefreshCoordinator makes sure at most one refresh call is outstanding for a session.
// Everybody interested in the outcome (the proactive expiry trigger, queued requests and the
// 401/403 retry path) gets the same flight.
type RefreshCoordinator struct {
	store   *session.Store
	refresh RefreshFunc
	options
}

// NewRefreshCoordinator creates a coordinator that issues refresh calls through refresh.
func NewRefreshCoordinator(store *session.Store, refresh RefreshFunc, opts ...Option) *RefreshCoordinator {
	return &RefreshCoordinator{
		store:   store,
		refresh: refresh,
		options: buildOptions("refresh", opts),
	}
}

// EnsureRefresh joins the outstanding refresh or starts one, and returns its flight without
// waiting. The call runs detached from ctx's cancellation so one impatient caller cannot fail
// it for everybody else. ErrNotAuthorized is returned when there are no credentials to refresh.
func (r *RefreshCoordinator) EnsureRefresh(ctx context.Context) (*session.Flight[session.Credentials], error) {
	flight, refreshToken, started := r.store.BeginRefresh()
	if flight == nil {
		return nil, autherrors.ErrNotAuthorized
	}
	return r.start(ctx, flight, refreshToken, started), nil
}

// EnsureRefreshFor is EnsureRefresh for a caller holding an access token it found expired or
// rejected. When the session has moved past staleAccessToken no refresh is started and both
// results are nil: the current credentials are already newer.
func (r *RefreshCoordinator) EnsureRefreshFor(ctx context.Context, staleAccessToken string) (*session.Flight[session.Credentials], error) {
	flight, refreshToken, started := r.store.BeginRefreshIfCurrent(staleAccessToken)
	if flight == nil {
		if !r.store.IsAuthorized() {
			return nil, autherrors.ErrNotAuthorized
		}
		r.logger.Debug().Msg("Access token already replaced, no refresh needed")
		return nil, nil
	}
	return r.start(ctx, flight, refreshToken, started), nil
}

func (r *RefreshCoordinator) start(ctx context.Context, flight *session.Flight[session.Credentials], refreshToken string, started bool) *session.Flight[session.Credentials] {
	if !started {
		r.metrics.RefreshJoined()
		return flight
	}
	r.logger.Debug().Msg("Starting token refresh")
	go r.run(context.WithoutCancel(ctx), flight, refreshToken)
	return flight
}

// Refresh is EnsureRefresh followed by a wait for the outcome.
func (r *RefreshCoordinator) Refresh(ctx context.Context) (session.Credentials, error) {
	flight, err := r.EnsureRefresh(ctx)
	if err != nil {
		return session.Credentials{}, err
	}
	return flight.Wait(ctx)
}

func (r *RefreshCoordinator) run(ctx context.Context, flight *session.Flight[session.Credentials], refreshToken string) {
	var (
		creds session.Credentials
		err   error
	)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("refresh panicked: %v", rec)
		}
		r.settle(flight, creds, err)
	}()

	creds, err = r.refresh(ctx, refreshToken)
	if err == nil && creds.AccessToken == "" {
		err = autherrors.Wrapf(autherrors.ErrInvalidResponse, "refresh response without access token")
	}
}

func (r *RefreshCoordinator) settle(flight *session.Flight[session.Credentials], creds session.Credentials, err error) {
	if err != nil {
		r.logger.Warn().Err(err).Msg("Token refresh failed, invalidating session")
		r.metrics.RefreshCall(metrics.OutcomeFailure)
		r.store.CompleteRefresh(flight, session.Credentials{}, fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, err))
		return
	}
	r.logger.Debug().Msg("Token refresh succeeded")
	r.metrics.RefreshCall(metrics.OutcomeSuccess)
	r.store.CompleteRefresh(flight, creds, nil)
}
