// Package config loads the configuration of the related command from
// defaults, a related.yaml file, RELATED_ environment variables and
// command line flags.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/syssam/related/codec"
	"github.com/syssam/related/dialect"
	"github.com/syssam/related/models"
)

// Default configuration values.
const (
	DefaultFormat   = "json"
	DefaultOutput   = "text"
	DefaultLogLevel = "info"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds the configuration of the related command.
type Config struct {
	// Schema is the YAML file declaring the models.
	Schema string `koanf:"schema"`
	// Snapshots are the snapshot files loaded in order.
	Snapshots []string `koanf:"snapshots"`
	// Format of the snapshot files when it can not be told from their
	// extension.
	Format string `koanf:"format"`
	// Output is the format of command output, text or json.
	Output   string `koanf:"output"`
	LogLevel string `koanf:"log_level"`
	// MaxDeleteBatch bounds DeleteMany. Zero keeps the store default.
	MaxDeleteBatch int `koanf:"max_delete_batch"`
	// Indexes lists the index keys per model.
	Indexes map[string][]string `koanf:"indexes"`
	// Mixins lists the built-in mixins applied per model.
	Mixins map[string][]string `koanf:"mixins"`
	// Keys holds the natural key per model.
	Keys     map[string]string `koanf:"keys"`
	Database DatabaseConfig    `koanf:"database"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// DatabaseConfig selects a database to read snapshots from.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, mysql, postgres
	DSN    string `koanf:"dsn"`
}

// Enabled reports whether a database source is configured.
func (d DatabaseConfig) Enabled() bool { return d.Driver != "" }

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := codec.ByName(c.Format); err != nil {
		return fmt.Errorf("invalid format %q: %w", c.Format, err)
	}
	if c.Output != OutputText && c.Output != OutputJSON {
		return fmt.Errorf("invalid output %q: expect %s or %s", c.Output, OutputText, OutputJSON)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MaxDeleteBatch < 0 {
		return fmt.Errorf("max_delete_batch must not be negative, got %d", c.MaxDeleteBatch)
	}
	if c.Database.Enabled() {
		drivers := []string{dialect.SQLite, dialect.MySQL, dialect.Postgres}
		if !slices.Contains(drivers, c.Database.Driver) {
			return fmt.Errorf("unknown database driver %q (available: %s)", c.Database.Driver, strings.Join(drivers, ", "))
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when database.driver is set")
		}
	}
	return nil
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ModelOptions returns the store options the configuration declares.
func (c *Config) ModelOptions() []models.Option {
	var opts []models.Option
	for _, name := range sortedKeys(c.Keys) {
		opts = append(opts, models.WithKey(name, c.Keys[name]))
	}
	for _, name := range sortedKeys(c.Indexes) {
		opts = append(opts, models.WithIndexes(name, c.Indexes[name]...))
	}
	if c.MaxDeleteBatch > 0 {
		opts = append(opts, models.WithMaxDeleteBatch(c.MaxDeleteBatch))
	}
	return opts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
