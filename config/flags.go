package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Flags holds the command-line overrides. Only flags that were set on the
// command line are applied.
type Flags struct {
	fs *flag.FlagSet

	ConfigFile string

	serverPort   int
	serverHost   string
	dbType       string
	dbURL        string
	dbSQLitePath string
	dbSeed       bool
	jwtSecret    string
	jwtEnforce   bool
	logLevel     string
	logDir       string
	corsOrigins  []string
	passwordMode string
	rateLimit    bool
	mediamtx     bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{fs: flag.NewFlagSet("cctv-server", flag.ContinueOnError)}
	fs := f.fs

	fs.StringVarP(&f.ConfigFile, "config", "c", "config.yaml", "Path to configuration file")

	fs.IntVar(&f.serverPort, "server.port", 0, "HTTP server port")
	fs.StringVar(&f.serverHost, "server.host", "", "HTTP server bind address")

	fs.StringVar(&f.dbType, "db.type", "", "Storage backend (memory, sqlite, postgres or mysql)")
	fs.StringVar(&f.dbURL, "db.url", "", "Database connection string")
	fs.StringVar(&f.dbSQLitePath, "db.sqlite-path", "", "SQLite database file path")
	fs.BoolVar(&f.dbSeed, "db.seed", true, "Seed the default admin, settings and plans")

	fs.StringVar(&f.jwtSecret, "jwt.secret", "", "JWT signing secret")
	fs.BoolVar(&f.jwtEnforce, "jwt.enforce", false, "Require a bearer token on /api routes")

	fs.StringVarP(&f.logLevel, "log.level", "l", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logDir, "log.dir", "", "Directory of the rotating log file")

	fs.StringSliceVar(&f.corsOrigins, "security.cors-origins", nil, "Allowed CORS origins (repeatable)")
	fs.StringVar(&f.passwordMode, "security.password-mode", "", "Password storage (plain or bcrypt)")
	fs.BoolVar(&f.rateLimit, "security.rate-limit", false, "Enable per-client rate limiting")

	fs.BoolVar(&f.mediamtx, "mediamtx.enabled", false, "Enable live streams through MediaMTX")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "CCTV monitoring dashboard backend\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfiguration priority (highest to lowest):\n")
		fmt.Fprintf(os.Stderr, "  1. Command line flags\n")
		fmt.Fprintf(os.Stderr, "  2. Environment variables (CCTV_*, PORT, DATABASE_URL, DB_*, JWT_SECRET)\n")
		fmt.Fprintf(os.Stderr, "  3. Configuration file (default: config.yaml)\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// Args returns the positional arguments left after flag parsing.
func (f *Flags) Args() []string {
	return f.fs.Args()
}

func (f *Flags) changed(name string) bool {
	return f.fs.Changed(name)
}

func (f *Flags) apply(c *Config) {
	if f.changed("server.port") {
		c.Server.Port = f.serverPort
	}
	if f.changed("server.host") {
		c.Server.Host = f.serverHost
	}
	if f.changed("db.type") {
		c.Database.Type = f.dbType
	}
	if f.changed("db.url") {
		c.Database.URL = f.dbURL
	}
	if f.changed("db.sqlite-path") {
		c.Database.SQLitePath = f.dbSQLitePath
	}
	if f.changed("db.seed") {
		c.Database.Seed = f.dbSeed
	}
	if f.changed("jwt.secret") {
		c.JWT.Secret = f.jwtSecret
	}
	if f.changed("jwt.enforce") {
		c.JWT.Enforce = f.jwtEnforce
	}
	if f.changed("log.level") {
		c.Logging.Level = f.logLevel
	}
	if f.changed("log.dir") {
		c.Logging.Dir = f.logDir
	}
	if f.changed("security.cors-origins") {
		c.Security.CORSOrigins = f.corsOrigins
	}
	if f.changed("security.password-mode") {
		c.Security.PasswordMode = f.passwordMode
	}
	if f.changed("security.rate-limit") {
		c.Security.RateLimit = f.rateLimit
	}
	if f.changed("mediamtx.enabled") {
		c.MediaMTX.Enabled = f.mediamtx
	}
}
