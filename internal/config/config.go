// Package config loads application configuration from an optional YAML
// file with environment variable overrides. Secrets for the web send path
// (SMTP login/password) are intentionally NOT part of this config: they
// arrive per request so that one deployment can serve multiple operators.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Mailjet MailjetConfig `yaml:"mailjet"`
	Sending SendingConfig `yaml:"sending"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// ServerConfig holds the HTTP shell settings.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// SMTPConfig holds default SMTP connection preferences. The defaults
// target Mailjet's SMTP relay; login and password are per-request.
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Debug          bool   `yaml:"debug"`
}

// Timeout returns the SMTP dial/operation timeout as a duration.
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MailjetConfig holds the HTTP API transport settings. Enabled switches
// the whole batch from SMTP to the Send API; it is never re-evaluated
// per message.
type MailjetConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the Send API request timeout as a duration.
func (c MailjetConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SendingConfig holds batch pacing and content defaults.
type SendingConfig struct {
	IntervalSeconds int      `yaml:"interval_seconds"`
	DailyLimit      int      `yaml:"daily_limit"`
	Subject         string   `yaml:"subject"`
	FromName        string   `yaml:"from_name"`
	ReplyTo         string   `yaml:"reply_to"`
	ListUnsubscribe string   `yaml:"list_unsubscribe"`
	TextOnly        bool     `yaml:"text_only"`
	Attachments     []string `yaml:"attachments"`
}

// Interval returns the default pacing interval as a duration.
func (c SendingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RuntimeConfig holds execution-environment toggles. Serverless marks a
// latency-constrained host: the cap is clamped to ServerlessCap and
// pacing is skipped so the batch finishes inside the request window.
type RuntimeConfig struct {
	Serverless    bool `yaml:"serverless"`
	ServerlessCap int  `yaml:"serverless_cap"`
	Public        bool `yaml:"public"`
	DebugLog      bool `yaml:"debug_log"`
}

// MaxDailyLimit is the hard ceiling on contacts dispatched per batch,
// regardless of what the caller requests.
const MaxDailyLimit = 100

// Load reads configuration from a YAML file and fills zero-value defaults.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "web"
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "in-v3.mailjet.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.TimeoutSeconds == 0 {
		cfg.SMTP.TimeoutSeconds = 60
	}
	if cfg.Mailjet.BaseURL == "" {
		cfg.Mailjet.BaseURL = "https://api.mailjet.com"
	}
	if cfg.Mailjet.TimeoutSeconds == 0 {
		cfg.Mailjet.TimeoutSeconds = 30
	}
	if cfg.Sending.IntervalSeconds == 0 {
		cfg.Sending.IntervalSeconds = 15
	}
	if cfg.Sending.DailyLimit == 0 {
		cfg.Sending.DailyLimit = MaxDailyLimit
	}
	if cfg.Sending.Subject == "" {
		cfg.Sending.Subject = "Candidato a Estágio em TI – Lucas Andrade"
	}
	if cfg.Runtime.ServerlessCap == 0 {
		cfg.Runtime.ServerlessCap = 5
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) first, so soft preferences can live
// in .env locally and in real env vars on the hosting platform.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := envInt("SMTP_PORT"); v > 0 {
		cfg.SMTP.Port = v
	}
	if v := os.Getenv("MAILJET_API_KEY"); v != "" {
		cfg.Mailjet.APIKey = v
	}
	if v := os.Getenv("MAILJET_API_SECRET"); v != "" {
		cfg.Mailjet.APISecret = v
	}
	if v := os.Getenv("MAILJET_BASE_URL"); v != "" {
		cfg.Mailjet.BaseURL = v
	}
	if envBool("USE_MAILJET_API") {
		cfg.Mailjet.Enabled = true
	}
	if v := envInt("SEND_INTERVAL"); v > 0 {
		cfg.Sending.IntervalSeconds = v
	}
	if v := envInt("DAILY_LIMIT"); v > 0 {
		cfg.Sending.DailyLimit = v
	}
	if v := os.Getenv("SUBJECT"); v != "" {
		cfg.Sending.Subject = v
	}
	if v := os.Getenv("FROM_NAME"); v != "" {
		cfg.Sending.FromName = v
	}
	if v := os.Getenv("REPLY_TO"); v != "" {
		cfg.Sending.ReplyTo = v
	}
	if v := os.Getenv("LIST_UNSUBSCRIBE"); v != "" {
		cfg.Sending.ListUnsubscribe = v
	}
	if envBool("TEXT_ONLY") {
		cfg.Sending.TextOnly = true
	}
	if envBool("SERVERLESS") || os.Getenv("VERCEL_ENV") != "" {
		cfg.Runtime.Serverless = true
	}
	if v := envInt("SERVERLESS_CAP"); v > 0 {
		cfg.Runtime.ServerlessCap = v
	}
	if envBool("PUBLIC_MODE") {
		cfg.Runtime.Public = true
	}
	if envBool("DEBUG_SMTP") {
		cfg.SMTP.Debug = true
		cfg.Runtime.DebugLog = true
	}

	// Hard ceiling applies no matter where the limit came from.
	if cfg.Sending.DailyLimit > MaxDailyLimit {
		cfg.Sending.DailyLimit = MaxDailyLimit
	}

	return cfg, nil
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
