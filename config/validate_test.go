package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.Host = "nfs.example.com"
	return cfg
}

func TestValidateAcceptsDefaultedConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsEmptyHost(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = ""
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.CallTimeout = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroMaxTries(t *testing.T) {
	cfg := validConfig()
	cfg.Retry.MaxTries = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsNegativeJukeboxPause(t *testing.T) {
	cfg := validConfig()
	cfg.Retry.JukeboxPause = -time.Second
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsOutOfRangePortOverride(t *testing.T) {
	cfg := validConfig()
	cfg.Server.NFSPortOverride = 70000
	assert.Error(t, Validate(cfg))
}
