package config

import (
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

const DefaultDatabaseName = "chainstore_test"

// DatabaseConfig names the chain database and the maintenance connection used
// to create and drop it.
type DatabaseConfig struct {
	ConnString string
	Name       string
}

func (c DatabaseConfig) Validate() error {
	if c.ConnString == "" {
		return fmt.Errorf("missing PostgreSQL connection string")
	}

	if c.Name == "" {
		return fmt.Errorf("missing database name")
	}

	_, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	if _, err := c.TargetConnString(); err != nil {
		return err
	}

	return nil
}

// TargetConnString returns ConnString pointed at the database named Name.
// Only URL-style connection strings are supported.
func (c DatabaseConfig) TargetConnString() (string, error) {
	u, err := url.Parse(c.ConnString)
	if err != nil {
		return "", fmt.Errorf("failed to parse PostgreSQL connection URL: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported connection string scheme %q: expected postgres:// URL", u.Scheme)
	}

	u.Path = "/" + c.Name
	u.RawPath = ""
	return u.String(), nil
}

func LoadDatabaseConfigFromCLI() DatabaseConfig {
	return DatabaseConfig{
		ConnString: viper.GetString("db-conn"),
		Name:       viper.GetString("db-name"),
	}
}
