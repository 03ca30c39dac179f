package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestFileWatcher_DebouncedChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")
	if err := os.WriteFile(path, []byte("v0"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewFileWatcher(path, func(got string) {
		if got != path {
			t.Errorf("onChange path = %s, want %s", got, path)
		}
		calls.Add(1)
	}, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte(i)}, 0600); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected a change notification")
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst of writes produced %d notifications, want 1", n)
	}
}

func TestFileWatcher_RenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")
	if err := os.WriteFile(path, []byte("v0"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewFileWatcher(path, func(string) { calls.Add(1) }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, "vectors.bin.123.tmp")
	if err := os.WriteFile(tmp, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected a notification after rename over the file")
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	var calls atomic.Int32
	w := NewFileWatcher(path, func(string) { calls.Add(1) }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.bin"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("unrelated file produced %d notifications", n)
	}
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "x.bin"), nil)
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestFileWatcher_StopsWithContext(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "x.bin"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "x.bin"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing directory")
	}
}
