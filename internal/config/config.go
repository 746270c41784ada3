package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the API and the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	HTTPAddr       string
	Location       *time.Location
	ReportTime     string
	ReportInterval time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	TrustedProxies []string
	MetricsUser    string
	MetricsPass    string
	LogLevel       string
	LogFile        string
}

// Load reads configuration from an optional .env file and environment variables with sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any key lookup, usually os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		TelegramToken:  get("TELEGRAM_TOKEN"),
		DatabaseURL:    get("DATABASE_URL"),
		HTTPAddr:       get("HTTP_ADDR"),
		ReportTime:     get("REPORT_TIME"),
		MetricsUser:    get("METRICS_USER"),
		MetricsPass:    get("METRICS_PASS"),
		LogLevel:       get("LOG_LEVEL"),
		LogFile:        get("LOG_FILE"),
		CORSOrigins:    splitList(get("CORS_ORIGINS")),
		TrustedProxies: splitList(get("TRUSTED_PROXIES")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "streaks.db"
	}

	// HTTP_ADDR=off disables the API and leaves only the bot.
	switch strings.ToLower(cfg.HTTPAddr) {
	case "":
		cfg.HTTPAddr = ":8080"
	case "off", "-":
		cfg.HTTPAddr = ""
	}

	cfg.ReportInterval = 5 * time.Hour
	if raw := get("REPORT_INTERVAL_HOURS"); raw != "" {
		interval, err := parseInterval(raw)
		if err != nil {
			return cfg, err
		}
		cfg.ReportInterval = interval
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	loc, err := parseLocation(get("TIMEZONE"))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	cfg.RateLimitRPS = 10
	if raw := get("RATE_LIMIT_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return cfg, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", raw)
		}
		cfg.RateLimitRPS = rps
	}

	cfg.RateLimitBurst = 20
	if raw := get("RATE_LIMIT_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return cfg, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", raw)
		}
		cfg.RateLimitBurst = burst
	}

	if cfg.HTTPAddr == "" && cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("nothing to run: set HTTP_ADDR or TELEGRAM_TOKEN")
	}

	return cfg, nil
}

// parseInterval reads a positive number of hours, fractions allowed.
func parseInterval(raw string) (time.Duration, error) {
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("REPORT_INTERVAL_HOURS must be a positive number of hours, got %q", raw)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

func parseLocation(raw string) (*time.Location, error) {
	if raw == "" || strings.EqualFold(raw, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", raw, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
