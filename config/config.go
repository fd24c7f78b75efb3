// Package config loads the NFSv3 client's static configuration: server
// address and mount export, transport timeouts and retry policy, credential
// selection, logging, metrics, and tracing.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (NFSCLIENT_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for an NFSv3 client instance.
type Config struct {
	// Server identifies the NFS/MOUNT server and the export to mount.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Credential selects how RPC calls authenticate to the server.
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`

	// Transport controls connection, call and I/O timeouts.
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`

	// Retry controls the JUKEBOX retry policy (§4.8/§4.9).
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics registration configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerConfig identifies the NFS/MOUNT server to connect to.
type ServerConfig struct {
	// Host is the server hostname or IP address (no port; the client
	// resolves MOUNT3/NFS3 ports via the portmapper unless PortOverride
	// fields are set).
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// MountPortOverride, if nonzero, skips the portmapper lookup for
	// MOUNT3 and connects directly to this port.
	MountPortOverride int `mapstructure:"mount_port_override" yaml:"mount_port_override,omitempty"`

	// NFSPortOverride, if nonzero, skips the portmapper lookup for NFS3
	// and connects directly to this port.
	NFSPortOverride int `mapstructure:"nfs_port_override" yaml:"nfs_port_override,omitempty"`

	// Export is the server-side path mounted as the filesystem root
	// (passed to MOUNT3's MNT procedure).
	Export string `mapstructure:"export" validate:"required" yaml:"export"`

	// ReservedPort requests that outbound connections bind a privileged
	// local port (1..1023), as MOUNT3 traditionally expects for clients
	// it is meant to trust by source port.
	ReservedPort bool `mapstructure:"reserved_port" yaml:"reserved_port"`
}

// CredentialConfig selects the RPC credential flavor and its AUTH_UNIX
// identity fields (ignored when Flavor is "null").
type CredentialConfig struct {
	// Flavor selects the RPC credential: "null" or "unix".
	// Default: "unix"
	Flavor string `mapstructure:"flavor" validate:"omitempty,oneof=null unix" yaml:"flavor"`

	// UID/GID/GIDs are the AUTH_UNIX identity presented to the server.
	// Ignored when Flavor is "null".
	UID  uint32   `mapstructure:"uid" yaml:"uid,omitempty"`
	GID  uint32   `mapstructure:"gid" yaml:"gid,omitempty"`
	GIDs []uint32 `mapstructure:"gids" yaml:"gids,omitempty"`

	// Hostname is the machine name AUTH_UNIX reports to the server.
	// Default: the local hostname.
	Hostname string `mapstructure:"hostname" yaml:"hostname,omitempty"`
}

// TransportConfig controls the RPC transport's timeouts.
type TransportConfig struct {
	// DialTimeout bounds establishing the TCP connection.
	// Default: 30s
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	// CallTimeout bounds a metadata-operation RPC round trip (GETATTR,
	// LOOKUP, CREATE, etc.).
	// Default: 30s
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`

	// IOTimeout bounds a data-carrying RPC round trip (READ, WRITE,
	// COMMIT), which legitimately takes longer than a metadata call on a
	// busy server.
	// Default: 60s
	IOTimeout time.Duration `mapstructure:"io_timeout" yaml:"io_timeout"`
}

// RetryConfig controls the JUKEBOX retry wrapper (nfsclient.Retrier).
type RetryConfig struct {
	// MaxTries bounds how many attempts a single logical call makes
	// before giving up.
	// Default: 5
	MaxTries int `mapstructure:"max_tries" validate:"omitempty,min=1" yaml:"max_tries"`

	// JukeboxPause is the delay between successive retries after an
	// NFS3ERR_JUKEBOX reply.
	// Default: 250ms
	JukeboxPause time.Duration `mapstructure:"jukebox_pause" yaml:"jukebox_pause"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file
	// path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig configures Prometheus metrics registration for the latency
// tracker (nfsclient.Tracker).
type MetricsConfig struct {
	// Enabled records whether metrics registration is wanted. NewTracker
	// does not read it: the tracker registers its HistogramVec and
	// CounterVec exactly when it is given a non-nil Registerer.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Namespace is a metric-name prefix setting. NewTracker does not read
	// it; the tracker's metrics always use the "nfsv3_client" namespace.
	// Default: "nfsclient"
	Namespace string `mapstructure:"namespace" yaml:"namespace,omitempty"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled records whether tracing is wanted. internal/telemetry does
	// not read it: spans always go to whatever global TracerProvider the
	// embedding application installed (the no-op one if none).
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceName identifies this client in exported spans, when the
	// embedding application has installed a real TracerProvider.
	// Default: "nfsv3-client"
	ServiceName string `mapstructure:"service_name" yaml:"service_name,omitempty"`
}

// Load reads configuration from configPath (or the default location if
// empty), lets NFSCLIENT_-prefixed environment variables override keys of
// that file, fills unset fields with ApplyDefaults, and validates the
// result. If no config file is found it returns DefaultConfig() unchanged:
// environment variables are not read and Validate is not run.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		// No config file and Load never reads env vars on its own in this
		// branch (same as the file-found path, env is only applied via
		// viper on top of the file). Server.Host is left empty: a caller
		// relying purely on defaults must set it before dialing.
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path in YAML form, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NFSCLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// decodeHooks composes the mapstructure decode hooks needed to turn config
// strings/numbers into time.Duration fields (everything else in Config is a
// plain scalar or slice mapstructure already handles).
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook())
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nfsv3-client")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nfsv3-client")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
