// Package library resolves library references to verified libraries.
//
// A Resolver reads each library once, verifies it in its own context and
// caches the result by name. Diagnostics raised inside a library are
// attributed to it and handed to the importer the first time the library
// is resolved. Circular imports are rejected.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leaphed/internal/dag"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

// ErrInvalid is returned for a library whose verification reported errors.
var ErrInvalid = errors.New("library has verification errors")

// CircularReferenceError is returned when a library imports itself,
// directly or through other libraries.
type CircularReferenceError struct {
	Name string
	// Path lists the libraries being resolved, outermost first.
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("Circular library reference to library %s.", e.Name)
}

type entry struct {
	lib *artifact.Library
	err error
}

// Resolver is a caching, cycle-guarded library resolver. It implements
// verify.LibraryResolver. A Resolver belongs to one verification run.
type Resolver struct {
	reader Reader
	logger *slog.Logger
	guard  *verify.Guard
	fold   cases.Caser

	mu    sync.Mutex
	cache map[string]*entry
}

// NewResolver creates a resolver reading libraries through reader.
func NewResolver(reader Reader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		reader: reader,
		logger: logger,
		guard:  verify.NewGuard(),
		fold:   cases.Fold(),
		cache:  make(map[string]*entry),
	}
}

func (r *Resolver) cached(name string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.cache[r.fold.String(name)]
	return e, ok
}

func (r *Resolver) store(name string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[r.fold.String(name)] = e
}

// Resolve implements verify.LibraryResolver.
func (r *Resolver) Resolve(ctx context.Context, ref artifact.LibraryRef, lv verify.LibraryVerifier) (*artifact.Library, verify.Diagnostics, error) {
	if e, ok := r.cached(ref.Name); ok {
		r.logger.Debug("library cache hit", "library", ref.Name)
		return e.lib, nil, e.err
	}

	if !r.guard.Enter(ref.Name) {
		return nil, nil, &CircularReferenceError{Name: ref.Name, Path: r.guard.Path()}
	}
	defer r.guard.Leave(ref.Name)

	r.logger.Debug("resolving library", "library", ref.Name, "version", ref.Version)
	lib, err := r.reader.Read(ctx, ref)
	if err != nil {
		err = fmt.Errorf("reading library %s: %w", ref.Name, err)
		r.store(ref.Name, &entry{err: err})
		return nil, nil, err
	}

	diags, err := lv.VerifyLibrary(ctx, lib)
	if err != nil {
		return nil, diags.InLibrary(lib.Name), err
	}
	diags = diags.InLibrary(lib.Name)
	if diags.HasErrors() {
		err := verify.Wrap(ErrInvalid, fmt.Sprintf("Errors encountered while verifying library %s.", lib.Name))
		r.store(ref.Name, &entry{err: err})
		return nil, diags, err
	}

	r.store(ref.Name, &entry{lib: lib})
	return lib, diags, nil
}

// Libraries returns the successfully resolved libraries, sorted by name.
func (r *Resolver) Libraries() []*artifact.Library {
	r.mu.Lock()
	defer r.mu.Unlock()
	libs := make([]*artifact.Library, 0, len(r.cache))
	for _, e := range r.cache {
		if e.lib != nil {
			libs = append(libs, e.lib)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
	return libs
}

// Graph returns the import graph of the resolved libraries. An edge runs
// from an imported library to its importer.
func (r *Resolver) Graph() (*dag.Graph[*artifact.Library], error) {
	libs := r.Libraries()
	g := dag.New[*artifact.Library]()
	keys := make(map[string]string, len(libs))
	for _, lib := range libs {
		g.AddNode(lib.Name, lib)
		keys[r.fold.String(lib.Name)] = lib.Name
	}
	for _, lib := range libs {
		for _, ref := range lib.Libraries {
			if dep, ok := keys[r.fold.String(ref.Name)]; ok {
				if err := g.AddEdge(dep, lib.Name); err != nil {
					return nil, fmt.Errorf("library %s imports %s: %w", lib.Name, ref.Name, err)
				}
			}
		}
	}
	return g, nil
}

// Ordered returns the libraries refs import, directly or transitively, with
// every library after the libraries it imports. Each library appears once.
func (r *Resolver) Ordered(refs []artifact.LibraryRef) ([]*artifact.Library, error) {
	g, err := r.Graph()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, ref := range refs {
		e, ok := r.cached(ref.Name)
		if !ok || e.lib == nil {
			return nil, fmt.Errorf("library %s has not been resolved", ref.Name)
		}
		ids = append(ids, e.lib.Name)
		ids = append(ids, g.Upstream(e.lib.Name)...)
	}
	nodes, err := g.Subgraph(ids).Sort()
	if err != nil {
		return nil, err
	}
	out := make([]*artifact.Library, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out, nil
}

var _ verify.LibraryResolver = (*Resolver)(nil)
