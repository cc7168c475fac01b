package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
)

// ErrNotFound is returned when no document exists for a library reference.
var ErrNotFound = errors.New("library document not found")

// Reader reads the library document a reference names.
type Reader interface {
	Read(ctx context.Context, ref artifact.LibraryRef) (*artifact.Library, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, ref artifact.LibraryRef) (*artifact.Library, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, ref artifact.LibraryRef) (*artifact.Library, error) {
	return f(ctx, ref)
}

// DirReader reads libraries from YAML documents in a directory. A reference
// with a path reads that file. Otherwise the reader tries
// <dir>/<name>-<version>.yaml, then <dir>/<name>.yaml (and the .yml
// spellings).
type DirReader struct {
	Dir string
}

// Read implements Reader.
func (r DirReader) Read(ctx context.Context, ref artifact.LibraryRef) (*artifact.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, path := range r.candidates(ref) {
		lib, err := artifact.ReadLibraryFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(lib.Name, ref.Name) {
			return nil, fmt.Errorf("%s: document declares library %q, expected %q", path, lib.Name, ref.Name)
		}
		return lib, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, ref.Name, r.Dir)
}

func (r DirReader) candidates(ref artifact.LibraryRef) []string {
	if ref.Path != "" {
		path := ref.Path
		if !filepath.IsAbs(path) && r.Dir != "" {
			if _, err := os.Stat(path); err != nil {
				path = filepath.Join(r.Dir, path)
			}
		}
		return []string{path}
	}
	var names []string
	if ref.Version != "" {
		names = append(names, ref.Name+"-"+ref.Version)
	}
	names = append(names, ref.Name)

	var paths []string
	for _, name := range names {
		for _, ext := range []string{".yaml", ".yml"} {
			paths = append(paths, filepath.Join(r.Dir, name+ext))
		}
	}
	return paths
}
