package config

// StorageConfig tunes the compaction and deposit algorithms
type StorageConfig struct {
	// MaxPasses bounds the compaction fixed-point iteration
	MaxPasses int `mapstructure:"max_passes" validate:"min=1,max=100"`

	// StuckThreshold is the number of consecutive unchanged input-count
	// checks before a deposit cycle is force-triggered
	StuckThreshold int `mapstructure:"stuck_threshold" validate:"min=1"`

	// OrderBuffer bounds pending order requests awaiting enqueue
	OrderBuffer int `mapstructure:"order_buffer" validate:"min=1"`
}
