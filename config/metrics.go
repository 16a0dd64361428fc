package config

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`
	Host    string `mapstructure:"host"`
	Path    string `mapstructure:"path"`
}
