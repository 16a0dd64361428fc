package config

// JournalConfig controls the decision journal database.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// sqlite or postgres
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`

	// SQLite file, or ":memory:".
	Path string `mapstructure:"path"`

	// PostgreSQL connection URL.
	URL string `mapstructure:"url" validate:"required_if=Type postgres"`
}
