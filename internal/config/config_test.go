package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10), cfg.XPPerCurrencyUnit)
	assert.Equal(t, 10*time.Second, cfg.RateLimitPledge)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "change-me")

	_, err := Load()
	assert.Error(t, err)
}

func TestOriginsAndMeiliHost(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://a.test, http://b.test,", MeiliSearchHost: "meili"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
	assert.Equal(t, "http://meili:7700", cfg.MeiliHost())

	cfg.MeiliSearchHost = "https://search.example.com"
	assert.Equal(t, "https://search.example.com", cfg.MeiliHost())
}
