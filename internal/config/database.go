package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoDatabase = errors.New("no DATABASE_URL or POSTGRES_USER env variable set")

// Database points at Postgres, either through DATABASE_URL or the
// POSTGRES_* variables of the official image. The password may come from a
// file.
type Database struct {
	URL          string `env:"DATABASE_URL"`
	Username     string `env:"POSTGRES_USER"`
	Password     string `env:"POSTGRES_PASSWORD"`
	PasswordFile string `env:"POSTGRES_PASSWORD_FILE,file"`
	Host         string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         uint16 `env:"POSTGRES_PORT" envDefault:"5432"`
	DBName       string `env:"POSTGRES_DB"`
	SSLMode      string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

func NewDatabase() (*Database, error) {
	var db Database
	if err := ParseEnv(&db); err != nil {
		return nil, err
	}
	return &db, nil
}

// Configured reports whether Postgres settings are present at all.
func (c Database) Configured() bool {
	return c.URL != "" || c.Username != ""
}

func (c Database) password() string {
	if c.Password != "" {
		return c.Password
	}
	return strings.TrimSpace(c.PasswordFile)
}

func (c Database) ConnString() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	if c.Username == "" {
		return "", ErrNoDatabase
	}
	dbName := c.DBName
	if dbName == "" {
		dbName = c.Username
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.password()),
		c.Host,
		c.Port,
		dbName,
		c.SSLMode,
	), nil
}

func (c Database) PgxpoolConfig() (*pgxpool.Config, error) {
	connString, err := c.ConnString()
	if err != nil {
		return nil, err
	}
	return pgxpool.ParseConfig(connString)
}
