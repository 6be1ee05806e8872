package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr     string
	DBDriver string
	DBUrl    string

	StaticDir string

	// RequirePersonalInfo enables the required-field check on personalInfo.
	// Partial submissions are accepted unless this is set.
	RequirePersonalInfo bool
	// ExposeErrors puts the raw driver error text in 500 responses.
	ExposeErrors bool

	Debug bool
}

// Load reads an optional .env file into the environment and then parses args.
func Load(args []string) (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return ParseFlags(args)
}

// ParseFlags builds a Config from command line flags, falling back to
// environment variables for anything not given on the command line.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("desirability-form", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 0, "listen port number (default 5501)")
	fs.StringVar(&cfg.DBDriver, "db-driver", "", "database driver, sqlite3 or postgres (default sqlite3)")
	fs.StringVar(&cfg.DBUrl, "db-url", "", "SQLite3 file path or PostgreSQL connection string (default desirability_form.db)")
	fs.StringVar(&cfg.StaticDir, "static-dir", "", "directory served at / (default static)")
	requireInfo := fs.Bool("require-personal-info", false, "reject submissions missing required personal info")
	exposeErrors := fs.Bool("expose-errors", true, "include database error text in error responses")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if host == "" {
		host = getEnv("HOST", "0.0.0.0")
	}
	if port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			p, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			port = uint(p)
		} else {
			port = 5501
		}
	}
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if cfg.DBDriver == "" {
		cfg.DBDriver = getEnv("DB_DRIVER", DriverSQLite)
	}
	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	if cfg.DBUrl == "" {
		cfg.DBUrl = getEnv("DATABASE_URL", "desirability_form.db")
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = getEnv("STATIC_DIR", "static")
	}

	if cfg.RequirePersonalInfo, err = boolOption(set["require-personal-info"], *requireInfo, "REQUIRE_PERSONAL_INFO"); err != nil {
		return Config{}, err
	}
	if cfg.ExposeErrors, err = boolOption(set["expose-errors"], *exposeErrors, "EXPOSE_ERRORS"); err != nil {
		return Config{}, err
	}
	if !set["debug"] {
		if cfg.Debug, err = boolOption(false, cfg.Debug, "DEBUG"); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// boolOption returns the flag value when the flag was given explicitly,
// otherwise the env variable if set, otherwise the flag default.
func boolOption(explicit bool, flagVal bool, env string) (bool, error) {
	if explicit {
		return flagVal, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return flagVal, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", env)
	}
	return v, nil
}
