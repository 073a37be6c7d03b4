package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

// GetDeviceID returns the identifier sent with logout. Empty means derive it from the user agent.
func (Session) GetDeviceID() string {
	return GetEnv("AUTH_DEVICE_ID", "")
}

// GetRefreshSkew is how long before the exp claim a token is already treated as expired.
func (Session) GetRefreshSkew() time.Duration {
	return GetEnvDuration("AUTH_REFRESH_SKEW", 0)
}

// IsServerContext reports whether the client runs without a client-side network identity
// (e.g. server-side rendering). Logout is then local only.
func (Session) IsServerContext() bool {
	return GetEnvBool("AUTH_SERVER_CONTEXT", false)
}
