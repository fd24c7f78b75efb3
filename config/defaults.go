package config

import (
	"os"
	"strings"
	"time"
)

// ApplyDefaults fills in every zero-valued field of cfg with its default,
// normalizing case-insensitive fields (log level) along the way. Called
// after unmarshaling a config file so a partial file still yields a
// complete, usable Config.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyCredentialDefaults(&cfg.Credential)
	applyTransportDefaults(&cfg.Transport)
	applyRetryDefaults(&cfg.Retry)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Export == "" {
		cfg.Export = "/"
	}
}

func applyCredentialDefaults(cfg *CredentialConfig) {
	if cfg.Flavor == "" {
		cfg.Flavor = "unix"
	}
	cfg.Flavor = strings.ToLower(cfg.Flavor)
	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.Hostname = h
		}
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = 60 * time.Second
	}
}

func applyRetryDefaults(cfg *RetryConfig) {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = defaultMaxTries
	}
	if cfg.JukeboxPause == 0 {
		cfg.JukeboxPause = defaultJukeboxPause
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = "nfsclient"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "nfsv3-client"
	}
}

// DefaultConfig returns a Config with every default already applied. It is
// not validated (Server.Host/Export may still be empty); callers building a
// config programmatically should set those before use.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// defaultMaxTries and defaultJukeboxPause mirror nfsclient's own defaults so
// config can default to them without importing nfsclient (which in turn
// depends on nfs3 and rpc; config stays a leaf package).
const (
	defaultMaxTries     = 5
	defaultJukeboxPause = 250 * time.Millisecond
)
