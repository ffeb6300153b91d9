// Package config loads and validates environment variables at startup and
// opens the database connection. Components receive the resulting Config
// at construction instead of reading the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sweep alert policies control how often the same (user, opportunity) deadline
// alert may fire again.
const (
	AlertPolicyOnce       = "once"
	AlertPolicyDaily      = "daily"
	AlertPolicyEverySweep = "every_sweep"
)

// Config holds all runtime configuration for the API service.
type Config struct {
	Port     string
	DBDriver string // postgres | mysql | sqlite
	DBDSN    string
	RedisURL string

	SweepIntervalHours  int
	SweepRetentionDays  int
	SweepAlertPolicy    string
	DeadlineAlertWindow int // days ahead a deadline alert covers

	AdminEmails []string // allow-list granting the admin role

	MailAPIURL   string
	MailAPIKey   string
	MailFrom     string
	MailReplyTo  string
	SiteURL      string
	MailEnabled  bool
}

// Load reads environment variables and returns a validated Config.
// Fail-fast: a malformed value is an error, a missing optional value gets
// a default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                os.Getenv("PORT"),
		DBDriver:            os.Getenv("DB_DRIVER"),
		DBDSN:               os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SweepIntervalHours:  6,
		SweepRetentionDays:  30,
		SweepAlertPolicy:    AlertPolicyDaily,
		DeadlineAlertWindow: 7,
		MailAPIURL:          os.Getenv("MAIL_API_URL"),
		MailAPIKey:          os.Getenv("MAIL_API_KEY"),
		MailFrom:            os.Getenv("MAIL_FROM"),
		MailReplyTo:         os.Getenv("MAIL_REPLY_TO"),
		SiteURL:             os.Getenv("SITE_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DATABASE_URL is required for driver %s", cfg.DBDriver)
	}

	if s := os.Getenv("SWEEP_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SWEEP_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		cfg.SweepIntervalHours = v
	}
	if s := os.Getenv("SWEEP_RETENTION_DAYS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SWEEP_RETENTION_DAYS must be a positive integer, got %q", s)
		}
		cfg.SweepRetentionDays = v
	}
	if s := os.Getenv("DEADLINE_ALERT_WINDOW"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("DEADLINE_ALERT_WINDOW must be a positive integer, got %q", s)
		}
		cfg.DeadlineAlertWindow = v
	}
	if s := os.Getenv("SWEEP_ALERT_POLICY"); s != "" {
		switch s {
		case AlertPolicyOnce, AlertPolicyDaily, AlertPolicyEverySweep:
			cfg.SweepAlertPolicy = s
		default:
			return nil, fmt.Errorf("SWEEP_ALERT_POLICY must be once, daily or every_sweep, got %q", s)
		}
	}

	if s := os.Getenv("ADMIN_EMAILS"); s != "" {
		for _, e := range strings.Split(s, ",") {
			if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, e)
			}
		}
	}

	cfg.MailEnabled = cfg.MailAPIURL != "" && cfg.MailAPIKey != "" && cfg.MailFrom != ""

	return cfg, nil
}

// IsAdminEmail checks the configured allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}
