package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// Driver selects the backend: "postgres" connects with URL, "sqlite"
// opens Path (":memory:" is accepted for throwaway instances).
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"    validate:"required_if=Driver postgres,omitempty,url"`
	Path   string `mapstructure:"path"   validate:"required_if=Driver sqlite"`
}

// CatalogConfig points at the declarative definition catalog loaded on
// startup. Optional: with no file configured, the catalog is managed
// through the API only.
type CatalogConfig struct {
	File string `mapstructure:"file"`
}
