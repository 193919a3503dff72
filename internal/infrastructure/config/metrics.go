package config

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	// Enabled turns the metrics collector and HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Addr is the listen address for the /metrics endpoint
	Addr string `mapstructure:"addr"`
}
