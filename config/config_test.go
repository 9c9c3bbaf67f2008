package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load("/non/existent/config.yaml", nil)
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Database.Type)
		assert.Equal(t, PasswordModePlain, cfg.Security.PasswordMode)
		assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9000
database:
  type: sqlite
  sqlite_path: /tmp/cctv.db
jwt:
  secret: test-secret
  expiry: 2h
security:
  password_mode: bcrypt
  cors_origins: ["https://dash.example.com"]
`)
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "sqlite", cfg.Database.Type)
		assert.Equal(t, "/tmp/cctv.db", cfg.Database.DSN())
		assert.Equal(t, "test-secret", cfg.JWT.Secret)
		assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
		assert.Equal(t, PasswordModeBcrypt, cfg.Security.PasswordMode)
		assert.Equal(t, []string{"https://dash.example.com"}, cfg.Security.CORSOrigins)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeConfig(t, "server: [")
		_, err := Load(path, nil)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/cctv")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CCTV_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("CCTV_JWT_ENFORCE", "true")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://u:p@db:5432/cctv", cfg.Database.DSN())
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.True(t, cfg.JWT.Enforce)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Security.CORSOrigins)
}

func TestFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CCTV_SERVER_PORT", "7000")

	flags, err := ParseFlags([]string{"--server.port", "7100", "--db.type", "sqlite", "--security.password-mode", "bcrypt"})
	require.NoError(t, err)

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, PasswordModeBcrypt, cfg.Security.PasswordMode)
	// unset flags leave lower layers alone
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown database", func(c *Config) { c.Database.Type = "oracle" }},
		{"postgres without host", func(c *Config) { c.Database.Type = "postgres"; c.Database.Host = "" }},
		{"empty jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown password mode", func(c *Config) { c.Security.PasswordMode = "md5" }},
		{"rate limit without rate", func(c *Config) { c.Security.RateLimit = true; c.Security.RateLimitRPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestDSN(t *testing.T) {
	d := Default().Database
	d.Type = "postgres"
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=vms_cctv sslmode=disable", d.DSN())

	d.Type = "mysql"
	d.Port = "3306"
	assert.Contains(t, d.DSN(), "postgres:postgres@tcp(localhost:3306)/vms_cctv")
}
