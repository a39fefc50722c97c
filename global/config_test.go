package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		DB:   DBConfig{URL: "postgres://localhost/webchat"},
		Auth: AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		WS:   WSConfig{PingInterval: 54 * time.Second, PongTimeout: 60 * time.Second},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().validate())
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.validate())
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DB.URL = ""
	assert.Error(t, cfg.validate())
}

func TestValidateRejectsPingSlowerThanPong(t *testing.T) {
	cfg := validConfig()
	cfg.WS.PingInterval = 2 * time.Minute
	assert.Error(t, cfg.validate())
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("WEBCHAT_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("WEBCHAT_SERVER_ADDR", ":9001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9001", cfg.Server.Addr)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 90*time.Second, cfg.Redis.PresenceTTL)
	assert.Equal(t, 256, cfg.WS.SendBuffer)

	// singleton after the first successful load
	assert.Same(t, cfg, Get())
}
