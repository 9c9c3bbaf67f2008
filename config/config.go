// Package config loads the server configuration. Values are layered from
// lowest to highest priority: built-in defaults, an optional YAML file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	MediaMTX MediaMTXConfig `yaml:"mediamtx"`
	Probe    ProbeConfig    `yaml:"probe"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Release      bool          `yaml:"release"` // gin release mode
}

type DatabaseConfig struct {
	Type         string `yaml:"type"` // memory, sqlite, postgres or mysql
	URL          string `yaml:"url"`  // full DSN, wins over the parts below
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"name"`
	SSLMode      string `yaml:"ssl_mode"`
	SQLitePath   string `yaml:"sqlite_path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	Seed         bool   `yaml:"seed"` // default admin, settings and plans
}

type JWTConfig struct {
	Secret  string        `yaml:"secret"`
	Expiry  time.Duration `yaml:"expiry"`
	Issuer  string        `yaml:"issuer"`
	Enforce bool          `yaml:"enforce"` // reject /api calls without a token
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	Production bool   `yaml:"production"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type SecurityConfig struct {
	CORSOrigins    []string `yaml:"cors_origins"`
	PasswordMode   string   `yaml:"password_mode"` // plain or bcrypt
	RateLimit      bool     `yaml:"rate_limit"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

type MediaMTXConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Host       string        `yaml:"host"`
	APIPort    string        `yaml:"api_port"`
	HTTPPort   string        `yaml:"http_port"`
	PublicHost string        `yaml:"public_host"` // host browsers use for HLS
	Timeout    time.Duration `yaml:"timeout"`
}

type ProbeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

const (
	PasswordModePlain  = "plain"
	PasswordModeBcrypt = "bcrypt"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         5000,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Type:         "memory",
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			DBName:       "vms_cctv",
			SSLMode:      "disable",
			SQLitePath:   "cctv.db",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			Seed:         true,
		},
		JWT: JWTConfig{
			Secret: "your-secret-key-change-in-production",
			Expiry: 24 * time.Hour,
			Issuer: "sentinel-cctv",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Security: SecurityConfig{
			CORSOrigins: []string{
				"http://localhost:5000",
				"http://localhost:5173",
				"http://localhost:3000",
				"http://127.0.0.1:5173",
			},
			PasswordMode:   PasswordModePlain,
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		MediaMTX: MediaMTXConfig{
			Host:       "localhost",
			APIPort:    "9997",
			HTTPPort:   "8888",
			PublicHost: "localhost",
			Timeout:    10 * time.Second,
		},
		Probe: ProbeConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// flags may be nil.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if flags != nil {
		flags.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	// Server
	for _, key := range []string{"PORT", "CCTV_SERVER_PORT"} {
		if v, ok := envInt(key); ok {
			c.Server.Port = v
		}
	}
	if v := os.Getenv("CCTV_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if os.Getenv("GIN_MODE") == "release" {
		c.Server.Release = true
	}

	// Database
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
		if os.Getenv("CCTV_DB_TYPE") == "" && c.Database.Type == "memory" {
			c.Database.Type = "postgres"
		}
	}
	if v := os.Getenv("CCTV_DB_TYPE"); v != "" {
		c.Database.Type = v
	}
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.SQLitePath, "CCTV_DB_SQLITE_PATH")
	if v, ok := envBool("CCTV_DB_SEED"); ok {
		c.Database.Seed = v
	}

	// JWT
	setString(&c.JWT.Secret, "JWT_SECRET")
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.JWT.Expiry = d
		}
	}
	if v, ok := envBool("CCTV_JWT_ENFORCE"); ok {
		c.JWT.Enforce = v
	}

	// Logging
	setString(&c.Logging.Level, "CCTV_LOG_LEVEL")
	setString(&c.Logging.Dir, "CCTV_LOG_DIR")
	if os.Getenv("GO_ENV") == "production" {
		c.Logging.Production = true
	}

	// Security
	if v := os.Getenv("CCTV_CORS_ORIGINS"); v != "" {
		c.Security.CORSOrigins = splitList(v)
	}
	setString(&c.Security.PasswordMode, "CCTV_PASSWORD_MODE")
	if v, ok := envBool("CCTV_RATE_LIMIT"); ok {
		c.Security.RateLimit = v
	}

	// MediaMTX
	if v, ok := envBool("MEDIAMTX_ENABLED"); ok {
		c.MediaMTX.Enabled = v
	}
	setString(&c.MediaMTX.Host, "MEDIAMTX_HOST")
	setString(&c.MediaMTX.APIPort, "MEDIAMTX_API_PORT")
	setString(&c.MediaMTX.HTTPPort, "MEDIAMTX_HTTP_PORT")
	setString(&c.MediaMTX.PublicHost, "MEDIAMTX_PUBLIC_HOST")
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.URL == "" && c.Database.SQLitePath == "" {
			return errors.New("sqlite path not specified")
		}
	case "postgres", "mysql":
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.DBName == "") {
			return fmt.Errorf("%s needs a url or a host and database name", c.Database.Type)
		}
	default:
		return fmt.Errorf("invalid database type: %s (must be memory, sqlite, postgres or mysql)", c.Database.Type)
	}

	if c.JWT.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("invalid jwt expiry: %s", c.JWT.Expiry)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Security.PasswordMode {
	case PasswordModePlain, PasswordModeBcrypt:
	default:
		return fmt.Errorf("invalid password mode: %s (must be plain or bcrypt)", c.Security.PasswordMode)
	}
	if c.Security.RateLimit && (c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst < 1) {
		return errors.New("rate limit needs a positive rate and burst")
	}

	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %s", c.Probe.Timeout)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN returns the connection string for the relational backends.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	switch d.Type {
	case "sqlite":
		return d.SQLitePath
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
