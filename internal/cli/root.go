// Package cli provides the command-line interface of related.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/related/internal/config"
)

// Version information (set at build time).
var Version = "0.1.0"

type (
	// configKey is used to store config in context.
	configKey struct{}
	// loggerKey is used to store the logger in context.
	loggerKey struct{}
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "related",
		Short: "Inspect, load and serialize relational record stores",
		Long: `related loads server snapshots into an in-memory relational record store
built from YAML model declarations.

Snapshots are read from JSON or msgpack files, or from a SQL database, and
merged into the store the way a client reconciles partial server payloads.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./related.yaml)")
	flags.String("schema", "", "YAML file declaring the models")
	flags.StringSlice("snapshot", nil, "snapshot files to load, in order")
	flags.String("format", "", "format of snapshot files without a known extension (json|msgpack)")
	flags.StringP("output", "o", "", "output format (text|json)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("db-driver", "", "database to read a snapshot from (sqlite|mysql|postgres)")
	flags.String("db-dsn", "", "database data source name")
	flags.Int("max-deletes", 0, "maximum number of records deleted at once")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		NewInspectCommand(),
		NewLoadCommand(),
		NewSerializeCommand(),
		NewWatchCommand(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Format:   config.DefaultFormat,
		Output:   config.DefaultOutput,
		LogLevel: config.DefaultLogLevel,
	}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
