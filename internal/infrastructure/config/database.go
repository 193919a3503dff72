package config

// DatabaseConfig holds database connection settings. SQLite is the
// default; PostgreSQL is available for shared deployments.
type DatabaseConfig struct {
	// Type selects the driver: sqlite or postgres
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`

	// Path is the SQLite file path (":memory:" for ephemeral)
	Path string `mapstructure:"path"`

	// URL is a full PostgreSQL connection string; overrides the fields below
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}
