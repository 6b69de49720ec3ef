package watch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-idom/internal/watch"
)

func runWatcher(t *testing.T, paths ...string) (<-chan string, func()) {
	t.Helper()
	w, err := watch.New(watch.Config{Paths: paths, Debounce: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 8)
	go func() {
		_ = w.Run(ctx, func(path string) error {
			got <- path
			return nil
		})
	}()
	return got, func() {
		cancel()
		_ = w.Close()
	}
}

func TestWatcher_CoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(doc, []byte("<p></p>"), 0o644))

	got, stop := runWatcher(t, doc)
	defer stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(doc, []byte(fmt.Sprintf("<p>%d</p>", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case path := <-got:
		assert.Equal(t, "page.html", filepath.Base(path))
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-got:
		t.Fatal("writes in one burst should produce a single notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "page.html")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("<p></p>"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	got, stop := runWatcher(t, doc)
	defer stop()

	require.NoError(t, os.WriteFile(other, []byte("y"), 0o644))

	select {
	case path := <-got:
		t.Fatalf("unexpected notification for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := watch.New(watch.Config{})
	assert.Error(t, err)
}

func TestWatcher_ConcurrentClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, os.WriteFile(path, []byte("<p></p>"), 0o644))
	w, err := watch.New(watch.Config{Paths: []string{path}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotPanics(t, func() { _ = w.Close() })
		}()
	}
	wg.Wait()
	assert.NoError(t, w.Close())
}
