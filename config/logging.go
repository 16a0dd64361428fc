package config

// LoggingConfig selects the slog handler built at startup.
type LoggingConfig struct {
	// debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// text or json
	Format string `mapstructure:"format" validate:"required,oneof=json text"`

	// stdout, stderr or file
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`

	// Required when Output is "file".
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`
}
