package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: {}\n"), 0o644))

	var reloads atomic.Int32
	w, err := newVocabWatcher(path, slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
		reloads.Add(1)
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(2 * reloadDelay)
	assert.Equal(t, int32(0), reloads.Load())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("categories:\n  Custom: [beacon]\n"), 0o644))
	}
	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestVocabWatcher_MissingDirectory(t *testing.T) {
	_, err := newVocabWatcher(filepath.Join(t.TempDir(), "missing", "vocab.yaml"),
		slog.New(slog.NewTextHandler(io.Discard, nil)), func() {})
	require.Error(t, err)
}
