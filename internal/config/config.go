package config

import "time"

type Config interface {
	EnvConfig
	SessionConfig
	TransportConfig
	CLIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetUserAgent() string
	GetLogLevel() string
	GetEnv() string
}

type SessionConfig interface {
	GetDeviceID() string
	GetRefreshSkew() time.Duration
	IsServerContext() bool
}

type TransportConfig interface {
	GetRequestTimeout() time.Duration
	GetRetryMax() int
	GetRetryWaitMin() time.Duration
	GetRetryWaitMax() time.Duration
}

// CLIConfig is only read by cmd/authclient.
type CLIConfig interface {
	GetEmail() string
	GetPassword() string
	GetMetricsAddr() string
	GetParallelRequests() int
}

type mainConfig struct {
	EnvVars
	Session
	Transport
	CLI
}

func New() Config {
	return mainConfig{}
}
