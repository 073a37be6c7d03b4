package config

import "time"

type Transport struct{}

var _ TransportConfig = Transport{}

func (Transport) GetRequestTimeout() time.Duration {
	return GetEnvDuration("AUTH_REQUEST_TIMEOUT", 30*time.Second)
}

func (Transport) GetRetryMax() int {
	return GetEnvInt("AUTH_RETRY_MAX", 2)
}

func (Transport) GetRetryWaitMin() time.Duration {
	return GetEnvDuration("AUTH_RETRY_WAIT_MIN", 500*time.Millisecond)
}

func (Transport) GetRetryWaitMax() time.Duration {
	return GetEnvDuration("AUTH_RETRY_WAIT_MAX", 5*time.Second)
}
