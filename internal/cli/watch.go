package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/related/models"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload snapshot files into a store as they change",
		Long: `Load the configured snapshots, then watch the snapshot files and load them
again whenever they are written. Each reload prints the number of records
the store reported in create, update and delete events.`,
		Example: `  related watch --schema pos.yaml --snapshot orders.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}
			if len(s.cfg.Snapshots) == 0 {
				return fmt.Errorf("no snapshot files to watch")
			}
			if _, err := s.load(cmd.Context()); err != nil {
				return err
			}
			return s.watch(cmd.Context(), cmd.OutOrStdout(), debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "delay before reloading a changed file")
	return cmd
}

// eventCounter counts the records reported by store events.
type eventCounter map[models.EventType]int

// listen counts the events of every table of store.
func (c eventCounter) listen(store *models.Models) {
	for _, name := range store.Schema().Models() {
		t := store.Table(name)
		t.On(models.EventCreate, func(e models.Event) { c[e.Type] += len(e.IDs) })
		t.On(models.EventUpdate, func(e models.Event) { c[e.Type]++ })
		t.On(models.EventDelete, func(e models.Event) { c[e.Type]++ })
	}
}

// reload loads the snapshot file at path again and reports the events it
// caused.
func (s *session) reload(w io.Writer, c eventCounter, path string) error {
	clear(c)
	snap, err := readFile(path, s.cfg.Format)
	if err != nil {
		return err
	}
	if _, err := s.store.Load(snap); err != nil {
		return err
	}
	pending := 0
	for _, n := range s.store.Pending() {
		pending += n
	}
	_, err = fmt.Fprintf(w, "%s: create=%d update=%d delete=%d pending=%d\n",
		filepath.Base(path), c[models.EventCreate], c[models.EventUpdate], c[models.EventDelete], pending)
	return err
}

func (s *session) watch(ctx context.Context, w io.Writer, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	paths := make(map[string]bool, len(s.cfg.Snapshots))
	dirs := make(map[string]bool)
	for _, p := range s.cfg.Snapshots {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		paths[abs] = true
		// Editors replace files on save, so the directory is watched.
		if dir := filepath.Dir(abs); !dirs[dir] {
			dirs[dir] = true
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}

	c := make(eventCounter)
	c.listen(s.store)
	s.logger.Info("watching snapshots", "files", len(paths))
	return watchLoop(ctx, watcher, s.logger, paths, debounce, func(path string) {
		if err := s.reload(w, c, path); err != nil {
			s.logger.Error("reload failed", "path", path, "error", err)
		}
	})
}

// watchLoop calls reload for every watched path written to, once writes
// settle for the debounce delay. It returns when ctx is done or the
// watcher is closed.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, logger *slog.Logger, paths map[string]bool, debounce time.Duration, reload func(string)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
		dirty = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !paths[name] {
				continue
			}
			dirty[name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			names := make([]string, 0, len(dirty))
			for name := range dirty {
				names = append(names, name)
			}
			slices.Sort(names)
			clear(dirty)
			for _, name := range names {
				logger.Debug("change detected", "path", name)
				reload(name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
