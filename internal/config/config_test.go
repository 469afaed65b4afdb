package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related/models"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

const sampleConfig = `
schema: pos.yaml
snapshots:
  - data/partners.json
  - /abs/orders.msgpack
format: msgpack
log_level: debug
max_delete_batch: 50
indexes:
  pos.order:
    - name
    - partner_id
keys:
  pos.tag: uuid
mixins:
  pos.tag: [uuid, time]
database:
  driver: sqlite
  dsn: file:pos.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("related", pflag.ContinueOnError)
	flags.String("schema", "", "")
	flags.StringSlice("snapshot", nil, "")
	flags.String("format", "", "")
	flags.String("output", "", "")
	flags.String("log-level", "", "")
	flags.String("db-driver", "", "")
	flags.String("db-dsn", "", "")
	flags.Int("max-deletes", 0, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.File)
	assert.False(t, cfg.Database.Enabled())
	assert.Empty(t, cfg.ModelOptions())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	dir := filepath.Dir(path)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(dir, "pos.yaml"), cfg.Schema)
	assert.Equal(t, []string{filepath.Join(dir, "data/partners.json"), "/abs/orders.msgpack"}, cfg.Snapshots)
	assert.Equal(t, "msgpack", cfg.Format)
	assert.Equal(t, 50, cfg.MaxDeleteBatch)
	assert.Equal(t, map[string][]string{"pos.order": {"name", "partner_id"}}, cfg.Indexes)
	assert.Equal(t, map[string]string{"pos.tag": "uuid"}, cfg.Keys)
	assert.Equal(t, map[string][]string{"pos.tag": {"uuid", "time"}}, cfg.Mixins)
	assert.Equal(t, DatabaseConfig{Driver: "sqlite", DSN: "file:pos.db"}, cfg.Database)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadLookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte("output: json\n"), 0o600))
	t.Chdir(dir)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ConfigFileNameAlt, cfg.File)
	assert.Equal(t, OutputJSON, cfg.Output)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("RELATED_LOG_LEVEL", "warn")
	t.Setenv("RELATED_DATABASE_DSN", "file:env.db")
	t.Setenv("RELATED_OUTPUT", "json")

	flags := newFlags(t, "--output", "text", "--schema", "local.yaml", "--snapshot", "a.json,b.json", "--max-deletes", "7")
	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "file:env.db", cfg.Database.DSN)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, OutputText, cfg.Output)
	assert.Equal(t, "local.yaml", cfg.Schema)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Snapshots)
	assert.Equal(t, 7, cfg.MaxDeleteBatch)
	// Unchanged flags keep the file values.
	assert.Equal(t, "msgpack", cfg.Format)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "format", content: "format: xml\n", errSubstr: `invalid format "xml"`},
		{name: "output", content: "output: html\n", errSubstr: `invalid output "html"`},
		{name: "log level", content: "log_level: loud\n", errSubstr: `invalid log_level "loud"`},
		{name: "negative batch", content: "max_delete_batch: -1\n", errSubstr: "must not be negative"},
		{name: "driver", content: "database:\n  driver: oracle\n  dsn: x\n", errSubstr: `unknown database driver "oracle"`},
		{name: "dsn", content: "database:\n  driver: mysql\n", errSubstr: "database.dsn is required"},
		{name: "yaml", content: "schema: [\n", errSubstr: "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "log_level", envKey("RELATED_LOG_LEVEL"))
	assert.Equal(t, "database/dsn", envKey("RELATED_DATABASE_DSN"))
	assert.Equal(t, "schema", envKey("RELATED_SCHEMA"))
}

func TestModelOptions(t *testing.T) {
	t.Parallel()
	s, err := schema.Process(schema.Definitions{
		"pos.order": schema.Fields(field.Char("name")),
		"pos.tag":   schema.Fields(field.Char("name"), field.Char("uuid")),
	})
	require.NoError(t, err)
	cfg := &Config{
		Indexes:        map[string][]string{"pos.order": {"name"}},
		Keys:           map[string]string{"pos.tag": "uuid"},
		MaxDeleteBatch: 3,
	}
	m, err := models.New(s, cfg.ModelOptions()...)
	require.NoError(t, err)

	order, err := m.Table("pos.order").Create(models.Values{"name": "Order 1"})
	require.NoError(t, err)
	got, err := m.Table("pos.order").ReadBy("name", "Order 1")
	require.NoError(t, err)
	assert.Same(t, order, got)

	tag, err := m.Table("pos.tag").Create(models.Values{"name": "vip"})
	require.NoError(t, err)
	assert.NotEmpty(t, tag.Get("uuid"))

	cfg.Keys = map[string]string{"pos.session": "uuid"}
	_, err = models.New(s, cfg.ModelOptions()...)
	require.Error(t, err)
}
