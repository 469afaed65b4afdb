package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/related/codec"
	"github.com/syssam/related/dialect/sql"
	"github.com/syssam/related/internal/config"
	"github.com/syssam/related/models"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/mixin"
)

// session holds the store a command works on.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	schema *schema.Schema
	store  *models.Models
}

// newSession processes the configured schema and builds an empty store.
func newSession(ctx context.Context) (*session, error) {
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)
	s, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}
	store, err := models.New(s, append(cfg.ModelOptions(), models.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, schema: s, store: store}, nil
}

// loadSchema reads the configured schema file, applies the configured
// mixins and processes the declarations.
func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return nil, errors.New("no schema configured: set schema in related.yaml or pass --schema")
	}
	data, err := os.ReadFile(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defs, err := schema.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	if defs, err = mixin.Apply(defs, cfg.Mixins); err != nil {
		return nil, err
	}
	return schema.Process(defs)
}

// loadStats counts the records a session loaded per model.
type loadStats map[string]int

func (l loadStats) add(loaded map[string][]*models.Record) {
	for name, records := range loaded {
		l[name] += len(records)
	}
}

// load reads the database snapshot, if any, and the snapshot files into
// the store, in that order.
func (s *session) load(ctx context.Context) (loadStats, error) {
	stats := make(loadStats)
	if s.cfg.Database.Enabled() {
		snap, err := s.readDatabase(ctx)
		if err != nil {
			return nil, err
		}
		loaded, err := s.store.Load(snap)
		if err != nil {
			return nil, fmt.Errorf("load database snapshot: %w", err)
		}
		stats.add(loaded)
	}
	snaps, err := s.readFiles(ctx, s.cfg.Snapshots)
	if err != nil {
		return nil, err
	}
	for i, snap := range snaps {
		loaded, err := s.store.Load(snap)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.cfg.Snapshots[i], err)
		}
		stats.add(loaded)
	}
	return stats, nil
}

// readFiles decodes snapshot files concurrently. The snapshots are
// returned in the order of paths.
func (s *session) readFiles(ctx context.Context, paths []string) ([]models.Snapshot, error) {
	snaps := make([]models.Snapshot, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snap, err := readFile(path, s.cfg.Format)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// snapshotExts are the extensions codec.ForPath tells apart.
var snapshotExts = []string{".json", ".msgpack", ".mpk"}

// readFile decodes the snapshot file at path. Files without a known
// extension are decoded with the codec named format.
func readFile(path, format string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	c := codec.ForPath(path)
	if !slices.Contains(snapshotExts, filepath.Ext(path)) {
		if c, err = codec.ByName(format); err != nil {
			return nil, err
		}
	}
	snap, err := c.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// readDatabase reads a snapshot of every model from the configured
// database.
func (s *session) readDatabase(ctx context.Context) (snap models.Snapshot, rerr error) {
	drv, err := sql.Open(s.cfg.Database.Driver, s.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, drv.Close()) }()
	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(s.logger))
	snap, err = sql.ReadSnapshot(ctx, stats, s.schema)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("read database snapshot", "driver", s.cfg.Database.Driver, "stats", stats.QueryStats().Stats().String())
	return snap, nil
}
