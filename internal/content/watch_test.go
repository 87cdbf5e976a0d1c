package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloads(t *testing.T) {
	dir := writeFiles(t, map[string]string{"classic.json": classicPackage})

	reloaded := make(chan *Content, 4)
	w := &Watcher{
		Dir:      dir,
		Debounce: 20 * time.Millisecond,
		OnReload: func(c *Content) { reloaded <- c },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "expansions"), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "expansions", "delve.json"), []byte(delvePackage), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if len(c.Packages()) == 2 {
				assert.Equal(t, []string{"classic", "delve"}, c.Packages())
				cancel()
				assert.NoError(t, <-done)
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("content was not reloaded")
		}
	}
}

func TestWatcherKeepsContentOnBadReload(t *testing.T) {
	dir := writeFiles(t, map[string]string{"classic.json": classicPackage})

	reloaded := make(chan *Content, 4)
	w := &Watcher{
		Dir:      dir,
		Debounce: 20 * time.Millisecond,
		OnReload: func(c *Content) { reloaded <- c },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("broken content must not be published")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "missing")}
	assert.Error(t, w.Run(context.Background()))
}
