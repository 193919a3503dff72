package config

// ContainerSpec declares one container of the depot topology
type ContainerSpec struct {
	Name     string `mapstructure:"name" validate:"required"`
	Role     string `mapstructure:"role" validate:"required,oneof=input output storage"`
	Capacity int    `mapstructure:"capacity" validate:"min=1"`
}

// WorldConfig declares the backing world and its container topology
type WorldConfig struct {
	// TransferRate limits slot transfer operations per second; 0 disables
	TransferRate float64 `mapstructure:"transfer_rate" validate:"min=0"`

	// TransferBurst is the limiter burst size
	TransferBurst int `mapstructure:"transfer_burst" validate:"min=0"`

	// Containers is the declared topology consumed by discovery
	Containers []ContainerSpec `mapstructure:"containers" validate:"dive"`
}
