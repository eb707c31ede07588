package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DriverPostgres selects lib/pq.
	DriverPostgres = "postgres"
	// DriverSQLite selects the pure-Go modernc.org/sqlite driver.
	DriverSQLite = "sqlite"
)

// Config holds database connection settings.
type Config struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	Path           string `yaml:"path" envconfig:"DB_PATH"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// ConnectTimeoutSeconds bounds how long Connect waits for the server; 0 -> 30s
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" envconfig:"DB_CONNECT_TIMEOUT_SECONDS"`
}

// Normalize lower-cases the driver and applies defaults.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case DriverPostgres:
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.Port == "" {
			c.Port = "5432"
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Path) == "" {
			c.Path = "data/stats.db"
		}
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		c.MaxConnections = 1
	default:
		return fmt.Errorf("invalid database driver %q; allowed: postgres, sqlite", c.Driver)
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 4
	}
	return nil
}

// ConnectTimeout returns the configured wait bound.
func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// DSN builds the driver-specific data source name.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return "file:" + c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Target describes the database for logs without credentials.
func (c Config) Target() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return c.Host + ":" + c.Port + "/" + c.Name
}
