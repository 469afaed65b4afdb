package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "related.yaml"
	ConfigFileNameAlt = "related.yml"
)

// delim separates nested config keys. Model names contain dots, so the
// usual "." would split them.
const delim = "/"

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "RELATED_"

// flagKeys maps flags whose name differs from their config key.
var flagKeys = map[string]string{
	"snapshot":    "snapshots",
	"db-driver":   "database/driver",
	"db-dsn":      "database/dsn",
	"log-level":   "log_level",
	"max-deletes": "max_delete_batch",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > related.yaml > related.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey transforms RELATED_DATABASE_DSN into database/dsn and
// RELATED_LOG_LEVEL into log_level.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "database_"); ok {
		return "database" + delim + rest
	}
	return key
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Paths that do not come from flags are relative to the config file.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(delim)

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"format":    DefaultFormat,
		"output":    DefaultOutput,
		"log_level": DefaultLogLevel,
	}, delim), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, delim, envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, delim, k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if used != "" {
		base := filepath.Dir(used)
		if !changed(flags, "schema") {
			cfg.Schema = resolvePathRelativeTo(cfg.Schema, base)
		}
		if !changed(flags, "snapshot") {
			for i, p := range cfg.Snapshots {
				cfg.Snapshots[i] = resolvePathRelativeTo(p, base)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func changed(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Lookup(name) != nil && flags.Changed(name)
}
