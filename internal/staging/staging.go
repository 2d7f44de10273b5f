// Package staging keeps the ordered set of local files queued for upload,
// each paired with a preview handle that must be released exactly once.
package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/awesamdood/ptb/internal/shared"
)

// ErrNotStaged is returned when an id does not name a staged file.
var ErrNotStaged = errors.New("file is not staged")

// StagedFile is one queued upload.
type StagedFile struct {
	ID         string
	Path       string
	Name       string
	Size       int64
	PreviewURL string
}

// Skipped explains why a path was not staged.
type Skipped struct {
	Path   string
	Reason string
}

// List is an ordered collection of staged files backed by a preview [Store].
type List struct {
	store  *Store
	accept func(path string) bool
	files  []StagedFile
}

// NewList creates an empty list. A nil accept admits every regular file.
func NewList(store *Store, accept func(path string) bool) *List {
	return &List{store: store, accept: accept}
}

// Extensions returns a filter admitting files whose extension is in exts, case-insensitively.
func Extensions(exts ...string) func(string) bool {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		return slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) })
	}
}

// Add stages paths in order. Missing files, directories and filtered types are skipped
// and reported rather than failing the whole call.
func (l *List) Add(paths ...string) ([]StagedFile, []Skipped, error) {
	var added []StagedFile
	var skipped []Skipped

	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			skipped = append(skipped, Skipped{Path: p, Reason: "not found"})
			continue
		case info.IsDir():
			skipped = append(skipped, Skipped{Path: p, Reason: "is a directory"})
			continue
		case l.accept != nil && !l.accept(p):
			skipped = append(skipped, Skipped{Path: p, Reason: "unsupported file type"})
			continue
		}

		preview, err := l.store.Link(p)
		if err != nil {
			return added, skipped, err
		}

		f := StagedFile{
			ID:         shared.GenerateID(),
			Path:       p,
			Name:       filepath.Base(p),
			Size:       info.Size(),
			PreviewURL: preview,
		}
		l.files = append(l.files, f)
		added = append(added, f)
	}
	return added, skipped, nil
}

// Remove unstages id and releases its preview.
func (l *List) Remove(id string) error {
	i := slices.IndexFunc(l.files, func(f StagedFile) bool { return f.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotStaged, id)
	}

	f := l.files[i]
	l.files = slices.Delete(l.files, i, i+1)
	return l.store.Release(f.PreviewURL)
}

// Move shifts the file at index from to index to, preserving the order of the others.
func (l *List) Move(from, to int) error {
	n := len(l.files)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d with %d staged", shared.ErrInvalidArgument, from, to, n)
	}
	if from == to {
		return nil
	}

	f := l.files[from]
	l.files = slices.Delete(l.files, from, from+1)
	l.files = slices.Insert(l.files, to, f)
	return nil
}

// Clear unstages everything and releases every preview. Clearing an empty list is a no-op.
func (l *List) Clear() error {
	var errs []error
	for _, f := range l.files {
		errs = append(errs, l.store.Release(f.PreviewURL))
	}
	l.files = nil
	return errors.Join(errs...)
}

// Files returns a copy of the staged files in order.
func (l *List) Files() []StagedFile { return slices.Clone(l.files) }

// Paths returns the staged paths in order.
func (l *List) Paths() []string {
	paths := make([]string, len(l.files))
	for i, f := range l.files {
		paths[i] = f.Path
	}
	return paths
}

// Len is the number of staged files.
func (l *List) Len() int { return len(l.files) }
