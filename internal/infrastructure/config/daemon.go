package config

import "time"

// DaemonConfig holds daemon process and loop-cadence settings
type DaemonConfig struct {
	// PIDFile path for single-instance enforcement
	PIDFile string `mapstructure:"pid_file"`

	// PoolSize is the number of worker pool execution slots
	PoolSize int `mapstructure:"pool_size" validate:"min=1,max=256"`

	// TickInterval paces the dispatch loop
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// DetectorInterval paces the deposit stuck-state detector
	DetectorInterval time.Duration `mapstructure:"detector_interval"`

	// ReloadInterval is the safety-net cadence for full reloads
	ReloadInterval time.Duration `mapstructure:"reload_interval"`

	// RecalcInterval is the safety-net cadence for space recalculation
	RecalcInterval time.Duration `mapstructure:"recalc_interval"`
}
