package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/quartermaster.pid"
	}
	if cfg.Daemon.PoolSize == 0 {
		cfg.Daemon.PoolSize = 16
	}
	if cfg.Daemon.TickInterval == 0 {
		cfg.Daemon.TickInterval = 500 * time.Millisecond
	}
	if cfg.Daemon.DetectorInterval == 0 {
		cfg.Daemon.DetectorInterval = 2 * time.Second
	}
	if cfg.Daemon.ReloadInterval == 0 {
		cfg.Daemon.ReloadInterval = 30 * time.Second
	}
	if cfg.Daemon.RecalcInterval == 0 {
		cfg.Daemon.RecalcInterval = 10 * time.Second
	}

	// Storage defaults
	if cfg.Storage.MaxPasses == 0 {
		cfg.Storage.MaxPasses = 10
	}
	if cfg.Storage.StuckThreshold == 0 {
		cfg.Storage.StuckThreshold = 3
	}
	if cfg.Storage.OrderBuffer == 0 {
		cfg.Storage.OrderBuffer = 64
	}

	// World defaults
	if cfg.World.TransferRate == 0 {
		cfg.World.TransferRate = 20
	}
	if cfg.World.TransferBurst == 0 {
		cfg.World.TransferBurst = 5
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "quartermaster.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "quartermaster"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "quartermaster"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Metrics defaults
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9190"
	}
}
