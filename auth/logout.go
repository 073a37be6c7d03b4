package auth

import (
	"context"
	"fmt"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/jrsteele09/go-auth-client/session"
)

// LogoutFunc notifies the server that the device is logging out.
type LogoutFunc func(ctx context.Context, deviceID string) error

// LogoutConfig controls how logout reaches the server.
type LogoutConfig struct {
	// DeviceID is sent with the logout call.
	DeviceID string
	// ServerContext skips the remote call entirely (no client-side network identity, e.g.
	// server-side rendering) and only clears the local session.
	ServerContext bool
}

// LogoutCoordinator makes sure at most one logout call is outstanding. The server call is best
// effort: the local session always ends unauthenticated.
type LogoutCoordinator struct {
	store  *session.Store
	logout LogoutFunc
	cfg    LogoutConfig
	options
}

// NewLogoutCoordinator creates a coordinator that notifies the server through logout.
func NewLogoutCoordinator(store *session.Store, logout LogoutFunc, cfg LogoutConfig, opts ...Option) *LogoutCoordinator {
	return &LogoutCoordinator{
		store:   store,
		logout:  logout,
		cfg:     cfg,
		options: buildOptions("logout", opts),
	}
}

// EnsureLogout joins the outstanding logout or starts one, then waits until the local session
// has been cleared. Server failures are logged and swallowed; the only error is ctx's own.
// The flight itself settles with an error wrapping ErrLogoutFailed when the server call failed.
func (l *LogoutCoordinator) EnsureLogout(ctx context.Context) error {
	if l.cfg.ServerContext {
		l.store.Invalidate()
		return nil
	}

	flight, started := l.store.BeginLogout()
	if started {
		go l.run(context.WithoutCancel(ctx), flight)
	} else {
		l.metrics.LogoutJoined()
	}

	select {
	case <-flight.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LogoutCoordinator) run(ctx context.Context, flight *session.Flight[struct{}]) {
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error().Interface("panic", rec).Msg("Logout call panicked")
			err = fmt.Errorf("logout panicked: %v", rec)
		}
		if err != nil {
			err = fmt.Errorf("%w: %w", autherrors.ErrLogoutFailed, err)
		}
		l.store.CompleteLogout(flight, err)
	}()

	err = l.logout(ctx, l.cfg.DeviceID)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Logout call failed, clearing local session anyway")
		l.metrics.LogoutCall(metrics.OutcomeFailure)
		return
	}
	l.metrics.LogoutCall(metrics.OutcomeSuccess)
}
