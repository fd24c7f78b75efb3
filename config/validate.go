package config

import "fmt"

// Validate checks that cfg is complete enough to build a working client:
// a server host and export, a recognized credential flavor, positive
// transport timeouts, at least one retry try and a non-negative JUKEBOX
// pause. Call after ApplyDefaults so zero-valued optional
// fields have already been filled in.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateCredential(&cfg.Credential); err != nil {
		return err
	}
	if err := validateTransport(&cfg.Transport); err != nil {
		return err
	}
	if err := validateRetry(&cfg.Retry); err != nil {
		return err
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("config: server.host is required")
	}
	if cfg.Export == "" {
		return fmt.Errorf("config: server.export is required")
	}
	if cfg.MountPortOverride < 0 || cfg.MountPortOverride > 65535 {
		return fmt.Errorf("config: server.mount_port_override out of range: %d", cfg.MountPortOverride)
	}
	if cfg.NFSPortOverride < 0 || cfg.NFSPortOverride > 65535 {
		return fmt.Errorf("config: server.nfs_port_override out of range: %d", cfg.NFSPortOverride)
	}
	return nil
}

func validateCredential(cfg *CredentialConfig) error {
	switch cfg.Flavor {
	case "null", "unix":
		return nil
	default:
		return fmt.Errorf("config: credential.flavor must be \"null\" or \"unix\", got %q", cfg.Flavor)
	}
}

func validateTransport(cfg *TransportConfig) error {
	if cfg.DialTimeout <= 0 {
		return fmt.Errorf("config: transport.dial_timeout must be positive")
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("config: transport.call_timeout must be positive")
	}
	if cfg.IOTimeout <= 0 {
		return fmt.Errorf("config: transport.io_timeout must be positive")
	}
	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if cfg.MaxTries < 1 {
		return fmt.Errorf("config: retry.max_tries must be at least 1")
	}
	if cfg.JukeboxPause < 0 {
		return fmt.Errorf("config: retry.jukebox_pause must not be negative")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	switch cfg.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return nil
	default:
		return fmt.Errorf("config: logging.level must be one of DEBUG/INFO/WARN/ERROR, got %q", cfg.Level)
	}
}
