package config

type CLI struct{}

var _ CLIConfig = CLI{}

func (CLI) GetEmail() string {
	return GetEnv("AUTH_EMAIL", "")
}

func (CLI) GetPassword() string {
	return GetEnv("AUTH_PASSWORD", "")
}

// GetMetricsAddr is the listen address of the Prometheus endpoint (e.g., ":9090").
// Empty disables it.
func (CLI) GetMetricsAddr() string {
	return GetEnv("METRICS_ADDR", "")
}

// GetParallelRequests is how many profile requests the CLI fires at once.
func (CLI) GetParallelRequests() int {
	n := GetEnvInt("AUTH_PARALLEL_REQUESTS", 4)
	if n == 0 {
		return 1
	}
	return n
}
