package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "streaks.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"DATABASE_URL":          "postgres://localhost/streaks",
		"HTTP_ADDR":             " :9000 ",
		"TIMEZONE":              "UTC",
		"REPORT_TIME":           "08:30",
		"REPORT_INTERVAL_HOURS": "3",
		"RATE_LIMIT_RPS":        "2.5",
		"RATE_LIMIT_BURST":      "4",
		"CORS_ORIGINS":          "http://localhost:3000, https://streaks.app",
		"TRUSTED_PROXIES":       "10.0.0.1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/streaks", cfg.DatabaseURL)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "08:30", cfg.ReportTime)
	assert.Equal(t, 3*time.Hour, cfg.ReportInterval)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 4, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:3000", "https://streaks.app"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
}

func TestFromEnvRequiresSomethingToRun(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"HTTP_ADDR": "off"}))
	assert.Error(t, err)

	cfg, err := FromEnv(envOf(map[string]string{"HTTP_ADDR": "off", "TELEGRAM_TOKEN": "token"}))
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"TIMEZONE":         "Mars/Olympus",
		"RATE_LIMIT_RPS":   "-1",
		"RATE_LIMIT_BURST": "many",
	} {
		_, err := FromEnv(envOf(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestFromEnvRejectsBadReportInterval(t *testing.T) {
	for _, value := range []string{"5h", "abc", "-2", "0"} {
		_, err := FromEnv(envOf(map[string]string{"REPORT_INTERVAL_HOURS": value}))
		assert.Error(t, err, value)
	}
}

func TestParseInterval(t *testing.T) {
	interval, err := parseInterval("2")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, interval)

	interval, err = parseInterval("0.5")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, interval)
}
