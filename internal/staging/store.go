package staging

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/awesamdood/ptb/internal/shared"
)

var (
	ErrReleased      = errors.New("preview handle already released")
	ErrUnknownHandle = errors.New("unknown preview handle")
	ErrStoreClosed   = errors.New("preview store closed")
)

type handle struct {
	path  string
	owned bool // the store created the file and removes it on release
}

// Store allocates preview handles as file:// URLs and tracks their release.
//
// Each handle must be released exactly once. Handles created by [Store.Put]
// own a temporary file that is removed on release.
type Store struct {
	mu       sync.Mutex
	dir      string
	handles  map[string]*handle  // live handles only
	released map[string]struct{} // tombstones so a second release is reported
	closed   bool
}

// NewStore returns an empty store. Temporary files go under os.TempDir.
func NewStore() *Store {
	return &Store{handles: make(map[string]*handle), released: make(map[string]struct{})}
}

// Link returns a handle that previews an existing file without taking ownership of it.
func (s *Store) Link(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	return s.addLocked(abs, false), nil
}

// Put writes data to a new temporary file with extension ext and returns its handle.
func (s *Store) Put(data []byte, ext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	if s.dir == "" {
		dir, err := os.MkdirTemp("", "ptb-preview-")
		if err != nil {
			return "", fmt.Errorf("failed to create preview directory: %w", err)
		}
		s.dir = dir
	}

	path := filepath.Join(s.dir, "preview-"+shared.GenerateID()+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}
	return s.addLocked(path, true), nil
}

func (s *Store) addLocked(path string, owned bool) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), Fragment: shared.GenerateID()}
	key := u.String()
	s.handles[key] = &handle{path: path, owned: owned}
	return key
}

// Path resolves a live handle to its file.
func (s *Store) Path(handleURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.lookupLocked(handleURL)
	if err != nil {
		return "", err
	}
	return h.path, nil
}

// Open opens the file behind a live handle. The lookup and the open happen
// under the store lock, so a concurrent [Store.Release] either wins and the
// call returns [ErrReleased], or loses and the caller keeps a readable file.
func (s *Store) Open(handleURL string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.lookupLocked(handleURL)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preview %s: %w", h.path, err)
	}
	return f, nil
}

func (s *Store) lookupLocked(handleURL string) (*handle, error) {
	if h, ok := s.handles[handleURL]; ok {
		return h, nil
	}
	if _, ok := s.released[handleURL]; ok {
		return nil, ErrReleased
	}
	return nil, ErrUnknownHandle
}

// Release frees a handle. A second release of the same handle returns [ErrReleased].
func (s *Store) Release(handleURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(handleURL)
}

func (s *Store) releaseLocked(handleURL string) error {
	h, err := s.lookupLocked(handleURL)
	if err != nil {
		return err
	}
	delete(s.handles, handleURL)
	s.released[handleURL] = struct{}{}

	if h.owned {
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove preview %s: %w", h.path, err)
		}
	}
	return nil
}

// Live counts handles not yet released.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.handles)
}

// Close releases every live handle and removes the temporary directory.
// Further allocations fail with [ErrStoreClosed].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for key := range s.handles {
		errs = append(errs, s.releaseLocked(key))
	}
	if s.dir != "" {
		errs = append(errs, os.RemoveAll(s.dir))
	}
	return errors.Join(errs...)
}
