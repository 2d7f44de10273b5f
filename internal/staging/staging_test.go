package staging

import (
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/awesamdood/ptb/internal/shared"
	tu "github.com/awesamdood/ptb/internal/testing"
)

func TestStore(t *testing.T) {
	t.Run("Link", func(t *testing.T) {
		store := NewStore()
		defer store.Close()

		path := tu.WriteTempFile(t, t.TempDir(), "a.png", tu.PNGHeader)
		h1, err := store.Link(path)
		if err != nil {
			t.Fatalf("link failed: %v", err)
		}
		h2, _ := store.Link(path)

		if !strings.HasPrefix(h1, "file://") {
			t.Errorf("expected file URL, got %s", h1)
		}
		if h1 == h2 {
			t.Error("each link should get a distinct handle")
		}
		if got, _ := store.Path(h1); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("Release Exactly Once", func(t *testing.T) {
		store := NewStore()
		defer store.Close()

		path := tu.WriteTempFile(t, t.TempDir(), "a.png", tu.PNGHeader)
		h, _ := store.Link(path)

		if err := store.Release(h); err != nil {
			t.Fatalf("first release failed: %v", err)
		}
		if err := store.Release(h); !errors.Is(err, ErrReleased) {
			t.Errorf("expected ErrReleased, got %v", err)
		}
		if _, err := store.Path(h); !errors.Is(err, ErrReleased) {
			t.Errorf("expected ErrReleased from Path, got %v", err)
		}
		if err := store.Release("file:///nope#x"); !errors.Is(err, ErrUnknownHandle) {
			t.Errorf("expected ErrUnknownHandle, got %v", err)
		}

		tu.AssertFileExists(t, path)
	})

	t.Run("Put Owns File", func(t *testing.T) {
		store := NewStore()
		defer store.Close()

		h, err := store.Put([]byte("png"), ".png")
		if err != nil {
			t.Fatalf("put failed: %v", err)
		}
		path, _ := store.Path(h)
		if got := tu.MustReadFile(t, path); got != "png" {
			t.Errorf("unexpected contents %q", got)
		}

		store.Release(h)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("owned preview should be removed on release")
		}
	})

	t.Run("Open", func(t *testing.T) {
		store := NewStore()
		defer store.Close()

		h, _ := store.Put([]byte("qr"), ".svg")
		f, err := store.Open(h)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer f.Close()

		if err := store.Release(h); err != nil {
			t.Fatalf("release failed: %v", err)
		}
		data, err := io.ReadAll(f)
		if err != nil || string(data) != "qr" {
			t.Errorf("open file should stay readable after release, got %q %v", data, err)
		}
		if _, err := store.Open(h); !errors.Is(err, ErrReleased) {
			t.Errorf("expected ErrReleased, got %v", err)
		}
	})

	t.Run("Released Handles Pruned", func(t *testing.T) {
		store := NewStore()
		defer store.Close()

		for range 100 {
			h, _ := store.Put([]byte("x"), ".png")
			store.Release(h)
		}
		if len(store.handles) != 0 {
			t.Errorf("expected no retained handle entries, got %d", len(store.handles))
		}
		if store.Live() != 0 {
			t.Errorf("expected 0 live handles, got %d", store.Live())
		}
	})

	t.Run("Close", func(t *testing.T) {
		store := NewStore()
		a, _ := store.Put([]byte("a"), ".png")
		store.Put([]byte("b"), ".png")
		path, _ := store.Path(a)

		if store.Live() != 2 {
			t.Errorf("expected 2 live handles, got %d", store.Live())
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if store.Live() != 0 {
			t.Errorf("expected 0 live handles, got %d", store.Live())
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("close should remove temporary previews")
		}
		if _, err := store.Put([]byte("c"), ".png"); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("expected ErrStoreClosed, got %v", err)
		}
		if err := store.Close(); err != nil {
			t.Errorf("second close should be a no-op, got %v", err)
		}
	})
}

func TestList(t *testing.T) {
	setup := func(t *testing.T) (*List, *Store, []string) {
		t.Helper()
		dir := t.TempDir()
		paths := []string{
			tu.WriteTempFile(t, dir, "1.png", tu.PNGHeader),
			tu.WriteTempFile(t, dir, "2.JPG", []byte("jpg")),
			tu.WriteTempFile(t, dir, "3.jpeg", []byte("jpeg")),
		}
		store := NewStore()
		t.Cleanup(func() { store.Close() })
		return NewList(store, Extensions(".png", ".jpg", ".jpeg")), store, paths
	}

	t.Run("Add", func(t *testing.T) {
		list, store, paths := setup(t)
		dir := t.TempDir()
		txt := tu.WriteTempFile(t, dir, "notes.txt", []byte("x"))

		added, skipped, err := list.Add(append(paths, txt, dir, "/missing.png")...)
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if len(added) != 3 || list.Len() != 3 {
			t.Errorf("expected 3 staged, got %d", list.Len())
		}
		if len(skipped) != 3 {
			t.Fatalf("expected 3 skipped, got %v", skipped)
		}
		reasons := []string{skipped[0].Reason, skipped[1].Reason, skipped[2].Reason}
		if !slices.Equal(reasons, []string{"unsupported file type", "is a directory", "not found"}) {
			t.Errorf("unexpected reasons %v", reasons)
		}
		if store.Live() != 3 {
			t.Errorf("expected 3 previews, got %d", store.Live())
		}
		if added[1].Name != "2.JPG" || added[0].Size != int64(len(tu.PNGHeader)) {
			t.Errorf("unexpected staged file %+v", added[1])
		}
	})

	t.Run("Unique IDs", func(t *testing.T) {
		list, _, paths := setup(t)
		list.Add(paths[0], paths[0])

		files := list.Files()
		if files[0].ID == files[1].ID {
			t.Error("staging the same path twice should give distinct ids")
		}
	})

	t.Run("Remove Releases Preview", func(t *testing.T) {
		list, store, paths := setup(t)
		added, _, _ := list.Add(paths...)

		if err := list.Remove(added[1].ID); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if !slices.Equal(list.Paths(), []string{paths[0], paths[2]}) {
			t.Errorf("unexpected order %v", list.Paths())
		}
		if store.Live() != 2 {
			t.Errorf("expected 2 live previews, got %d", store.Live())
		}
		if err := store.Release(added[1].PreviewURL); !errors.Is(err, ErrReleased) {
			t.Errorf("preview should already be released, got %v", err)
		}
		if err := list.Remove(added[1].ID); !errors.Is(err, ErrNotStaged) {
			t.Errorf("expected ErrNotStaged, got %v", err)
		}
	})

	t.Run("Move", func(t *testing.T) {
		list, _, paths := setup(t)
		list.Add(paths...)

		if err := list.Move(2, 0); err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if !slices.Equal(list.Paths(), []string{paths[2], paths[0], paths[1]}) {
			t.Errorf("unexpected order %v", list.Paths())
		}

		if err := list.Move(0, 2); err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if !slices.Equal(list.Paths(), []string{paths[0], paths[1], paths[2]}) {
			t.Errorf("unexpected order %v", list.Paths())
		}

		if err := list.Move(0, 3); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		list, store, paths := setup(t)
		list.Add(paths...)

		if err := list.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if list.Len() != 0 || store.Live() != 0 {
			t.Errorf("expected empty list and store, got %d/%d", list.Len(), store.Live())
		}
		if err := list.Clear(); err != nil {
			t.Errorf("clearing an empty list should be a no-op, got %v", err)
		}
	})
}
