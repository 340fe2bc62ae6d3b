package slidepdf

// Notes:
// - Release: closes the session, removes tracked files and the work dir
// - debug mode keeps files on disk
// - foreign files keep the work dir alive; close errors are swallowed
// - Release is idempotent and safe with nothing tracked

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func storeWithFiles(t *testing.T, n int) *PageStore {
	t.Helper()

	s, err := NewPageStore(t.TempDir(), "j")
	if err != nil {
		t.Fatal(err)
	}
	for i := range n {
		p := s.PathFor(RenderTarget{ID: "t", SequenceIndex: i})
		if err := os.WriteFile(p, []byte("%PDF"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

// ---------------------------------------------------------------------------
// TestJanitor_Release - Resource Release
// ---------------------------------------------------------------------------

func TestJanitor_Release(t *testing.T) {
	t.Parallel()

	t.Run("removes files and work dir", func(t *testing.T) {
		t.Parallel()

		closes := 0
		s := storeWithFiles(t, 3)
		j := NewJanitor(false, nil)
		j.TrackSession(closerFunc(func() error { closes++; return nil }))
		j.TrackStore(s)

		j.Release()
		j.Release()

		if closes != 1 {
			t.Errorf("session closed %d times, want 1", closes)
		}
		if _, err := os.Stat(s.Dir()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("work dir still present: %v", err)
		}
	})

	t.Run("debug keeps files", func(t *testing.T) {
		t.Parallel()

		s := storeWithFiles(t, 2)
		j := NewJanitor(true, nil)
		j.TrackStore(s)
		j.Release()

		for _, f := range s.TempFiles() {
			if _, err := os.Stat(f); err != nil {
				t.Errorf("debug mode removed %s: %v", f, err)
			}
		}
	})

	t.Run("untracked files keep the dir", func(t *testing.T) {
		t.Parallel()

		s := storeWithFiles(t, 1)
		foreign := filepath.Join(s.Dir(), "notes.txt")
		if err := os.WriteFile(foreign, nil, 0o600); err != nil {
			t.Fatal(err)
		}

		j := NewJanitor(false, nil)
		j.TrackStore(s)
		j.Release()

		if entries := dirEntries(t, s.Dir()); len(entries) != 1 || entries[0] != "notes.txt" {
			t.Errorf("work dir entries = %v, want [notes.txt]", entries)
		}
	})

	t.Run("paths never written are fine", func(t *testing.T) {
		t.Parallel()

		s, err := NewPageStore(t.TempDir(), "j")
		if err != nil {
			t.Fatal(err)
		}
		s.PathFor(RenderTarget{ID: "ghost"})

		j := NewJanitor(false, nil)
		j.TrackStore(s)
		j.Release()

		if _, err := os.Stat(s.Dir()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("work dir still present: %v", err)
		}
	})

	t.Run("close error does not stop cleanup", func(t *testing.T) {
		t.Parallel()

		s := storeWithFiles(t, 1)
		j := NewJanitor(false, nil)
		j.TrackSession(closerFunc(func() error { return errors.New("browser hung") }))
		j.TrackStore(s)
		j.Release()

		if _, err := os.Stat(s.Dir()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("work dir still present: %v", err)
		}
	})

	t.Run("nothing tracked", func(t *testing.T) {
		t.Parallel()

		NewJanitor(false, nil).Release()
	})
}
