package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rb", "A = /a/\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))

	w, err := newWatcher(slog.New(slog.DiscardHandler), []string{dir}, []string{"vendor"})
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func() { changes <- struct{}{} })
	}()

	// A burst of writes is reported once.
	for i := 0; i < 3; i++ {
		writeFile(t, dir, "a.rb", "A = /(a+)+/\n")
	}
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no rerun after write")
	}

	// Directories created later are watched too.
	writeFile(t, dir, "lib/new/b.rb", "B = /b/\n")
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "lib/new/b.rb", "B = /bb/\n")
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no rerun after write in new directory")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcherMissingPath(t *testing.T) {
	_, err := newWatcher(slog.New(slog.DiscardHandler), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)
}
