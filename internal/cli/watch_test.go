package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related/internal/config"
	"github.com/syssam/related/models"
)

func TestSessionReload(t *testing.T) {
	t.Parallel()
	_, schemaPath, partners, orders := fixture(t)
	ctx := context.WithValue(context.Background(), configKey{}, &config.Config{
		Schema:    schemaPath,
		Snapshots: []string{partners},
		Format:    config.DefaultFormat,
	})
	s, err := newSession(ctx)
	require.NoError(t, err)
	_, err = s.load(ctx)
	require.NoError(t, err)

	c := make(eventCounter)
	c.listen(s.store)
	var out bytes.Buffer
	require.NoError(t, s.reload(&out, c, orders))
	assert.Equal(t, "orders.json: create=3 update=0 delete=0 pending=1\n", out.String())
	assert.Equal(t, 3, c[models.EventCreate])

	out.Reset()
	require.NoError(t, s.reload(&out, c, partners))
	assert.Equal(t, "partners.json: create=1 update=0 delete=0 pending=1\n", out.String())

	assert.Error(t, s.reload(&out, c, filepath.Join(t.TempDir(), "missing.json")))
}

func TestWatchLoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.json")
	other := filepath.Join(dir, "notes.txt")

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()
	require.NoError(t, watcher.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		logger := slog.New(slog.DiscardHandler)
		done <- watchLoop(ctx, watcher, logger, map[string]bool{path: true}, 10*time.Millisecond, func(p string) {
			reloaded <- p
		})
	}()

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"pos.order": []}`), 0o600))

	select {
	case p := <-reloaded:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the snapshot was written")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
	for p := range drain(reloaded) {
		assert.Equal(t, path, p)
	}
}

func drain(ch chan string) map[string]bool {
	out := make(map[string]bool)
	for {
		select {
		case p := <-ch:
			out[p] = true
		default:
			return out
		}
	}
}
