package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. SQLSERVER_SERVER.
const EnvPrefix = "sqlserver"

// ErrMissingField is wrapped by every ConfigurationError.
var ErrMissingField = errors.New("missing required field")

// Config holds the connection settings for one SQL Server database.
type Config struct {
	Server    string `envconfig:"server"`
	Database  string `envconfig:"database"`
	Username  string `envconfig:"username"`
	Password  string `envconfig:"password"`
	Driver    string `envconfig:"driver"`
	KeepAlive bool   `envconfig:"keepalive"`
}

// Load reads an optional .env file and then the SQLSERVER_* environment.
// A missing env file is not an error; variables already set in the
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// ConfigurationError reports every required field that is empty.
type ConfigurationError struct {
	Missing []string
	errs    *multierror.Error
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.errs.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.errs.Unwrap()
}

// Validate checks that server, database, username, password and driver are set.
func (c *Config) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"server", c.Server},
		{"database", c.Database},
		{"username", c.Username},
		{"password", c.Password},
		{"driver", c.Driver},
	}

	var (
		result  *multierror.Error
		missing []string
	)
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrMissingField, f.name))
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, err := range errs {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	}
	return &ConfigurationError{Missing: missing, errs: result}
}

// ConnectionString assembles the ODBC connection string handed to the driver.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf("DRIVER={%s};SERVER=%s;DATABASE=%s;UID=%s;PWD=%s",
		c.Driver, c.Server, c.Database, c.Username, c.Password)
}
