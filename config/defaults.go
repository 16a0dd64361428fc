package config

import "github.com/LostLucidity/lucid-ai-sub002/rules"

// SetDefaults fills every unset field.
func SetDefaults(cfg *Config) {
	if cfg.Socket.Path == "" {
		cfg.Socket.Path = "/tmp/lucid.sock"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Plan.TickInterval == 0 {
		cfg.Plan.TickInterval = 1
	}

	if cfg.Strategist.Interval == 0 {
		// One game minute at faster speed.
		cfg.Strategist.Interval = 1344
	}

	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Journal.Type == "" {
		cfg.Journal.Type = "sqlite"
	}
	if cfg.Journal.Type == "sqlite" && cfg.Journal.Path == "" {
		cfg.Journal.Path = "lucid-journal.db"
	}

	if cfg.Macro == (rules.Doctrine{}) {
		cfg.Macro = rules.DefaultDoctrine()
	}
	cfg.Macro.Validate()
}
