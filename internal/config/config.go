package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceBudget caps calls to one metered external service.
type ServiceBudget struct {
	Limit          int `yaml:"limit"`
	AlertThreshold int `yaml:"alert_threshold"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken       string   `yaml:"bot_token"`
		AdminChatID    string   `yaml:"admin_chat_id"`
		AdminUsernames []string `yaml:"admin_usernames"`
	} `yaml:"telegram"`
	DaData struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"dadata"`
	APIAssist struct {
		BaseURL string `yaml:"base_url"`
		Key     string `yaml:"key"`
	} `yaml:"api_assist"`
	Quota struct {
		FreeChecks int `yaml:"free_checks"`
	} `yaml:"quota"`
	Usage struct {
		Services   map[string]ServiceBudget `yaml:"services"`
		DigestCron string                   `yaml:"digest_cron"`
	} `yaml:"usage"`
	Database struct {
		Driver      string `yaml:"driver"` // sqlite, postgres or memory
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Cache struct {
		ReportTTLMinutes int `yaml:"report_ttl_minutes"`
		MaxEntries       int `yaml:"max_entries"`
	} `yaml:"cache"`
	PDF struct {
		FontDir string `yaml:"font_dir"`
	} `yaml:"pdf"`
	Ops struct {
		ListenAddr string `yaml:"listen_addr"` // empty disables the ops server
	} `yaml:"ops"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		cfg.Telegram.AdminChatID = v
	}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		cfg.Telegram.AdminUsernames = splitList(v)
	}
	if v := os.Getenv("DADATA_API_KEY"); v != "" {
		cfg.DaData.APIKey = v
	}
	if v := os.Getenv("DADATA_SECRET_KEY"); v != "" {
		cfg.DaData.SecretKey = v
	}
	if v := os.Getenv("API_ASSIST_KEY"); v != "" {
		cfg.APIAssist.Key = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("OPS_ADDR"); v != "" {
		cfg.Ops.ListenAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FREE_CHECKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.FreeChecks = n
		}
	}

	// Defaults
	if cfg.DaData.BaseURL == "" {
		cfg.DaData.BaseURL = "https://suggestions.dadata.ru/suggestions/api/4_1/rs"
	}
	if cfg.APIAssist.BaseURL == "" {
		cfg.APIAssist.BaseURL = "https://service.api-assist.com/parser"
	}
	if cfg.Quota.FreeChecks == 0 {
		cfg.Quota.FreeChecks = 3
	}
	if len(cfg.Telegram.AdminUsernames) == 0 {
		cfg.Telegram.AdminUsernames = []string{"zegnas"}
	}
	if cfg.Usage.Services == nil {
		cfg.Usage.Services = map[string]ServiceBudget{}
	}
	if _, ok := cfg.Usage.Services["dadata"]; !ok {
		cfg.Usage.Services["dadata"] = ServiceBudget{Limit: 10000, AlertThreshold: 100}
	}
	if _, ok := cfg.Usage.Services["api-assist"]; !ok {
		cfg.Usage.Services["api-assist"] = ServiceBudget{Limit: 1000, AlertThreshold: 50}
	}
	if cfg.Usage.DigestCron == "" {
		cfg.Usage.DigestCron = "0 0 9 * * *"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/contragent.db"
	}
	if cfg.Cache.ReportTTLMinutes == 0 {
		cfg.Cache.ReportTTLMinutes = 15
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 256
	}
	if cfg.PDF.FontDir == "" {
		cfg.PDF.FontDir = "fonts"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.DaData.APIKey == "" {
		return fmt.Errorf("dadata.api_key is required")
	}
	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", c.Database.Driver)
	}
	if c.Quota.FreeChecks < 0 {
		return fmt.Errorf("quota.free_checks must not be negative")
	}
	for name, b := range c.Usage.Services {
		if b.Limit <= 0 {
			return fmt.Errorf("usage.services.%s.limit must be positive", name)
		}
		if b.AlertThreshold < 0 || b.AlertThreshold >= b.Limit {
			return fmt.Errorf("usage.services.%s.alert_threshold must be in [0, limit)", name)
		}
	}
	return nil
}

// IsAdmin reports whether username is on the admin allow-list.
// The comparison ignores case and a leading @.
func (c *Config) IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	name := strings.ToLower(strings.TrimPrefix(username, "@"))
	for _, admin := range c.Telegram.AdminUsernames {
		if strings.ToLower(strings.TrimPrefix(admin, "@")) == name {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
