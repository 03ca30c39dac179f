package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	k1 := Key("/notes/todo.txt")
	if k1 != Key("/notes/todo.txt") {
		t.Errorf("same path should give same key")
	}
	if !strings.HasPrefix(k1, prefix) {
		t.Errorf("key should have prefix %q: got %q", prefix, k1)
	}
	if len(k1) != len(prefix)+32 {
		t.Errorf("key length = %d, want %d", len(k1), len(prefix)+32)
	}
	if k1 == Key("/notes/done.txt") {
		t.Errorf("different paths should give different keys")
	}
}

func TestKey_normalized(t *testing.T) {
	want := Key("/notes/todo")
	for _, p := range []string{"/notes/todo/", "/notes/./todo", "/notes/x/../todo"} {
		if got := Key(p); got != want {
			t.Errorf("Key(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	got, err := FromPath("todo.txt")
	if err != nil {
		t.Fatal(err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if want := Key(filepath.Join(cwd, "todo.txt")); got != want {
		t.Errorf("FromPath(relative) = %q, want key of absolute path %q", got, want)
	}
}
