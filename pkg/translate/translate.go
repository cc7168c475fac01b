// Package translate dispatches verified expression trees to a target
// representation.
//
// A Registry maps qualified node kinds to NodeTranslators and model type
// names to ModelTranslators. A Context carries one translation run: the
// registry, the annotations verification produced and whatever state the
// target backend keeps. Translation does not type-check; every node it
// visits must already have a result type.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// ErrNoTranslator matches a HandlerError.
var ErrNoTranslator = errors.New("no translator registered")

// ErrNotVerified is returned when a node without a result type is
// translated.
var ErrNotVerified = errors.New("node has not been verified")

// HandlerError is returned when no translator is registered for a node kind
// or model type.
type HandlerError struct {
	Name string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("Could not find a handler map for name: %s.", e.Name)
}

// Is reports whether target is ErrNoTranslator.
func (e *HandlerError) Is(target error) bool { return target == ErrNoTranslator }

// NodeTranslator translates one kind of node. The result is opaque to the
// dispatcher.
type NodeTranslator func(c *Context, n *ast.ASTNode) (any, error)

// ModelTranslator maps a source model type, and property paths on it, onto
// the target's own schema.
type ModelTranslator interface {
	TransformModel(c *Context, source *types.ObjectType) (*types.ObjectType, error)
	TransformModelPath(c *Context, source *types.ObjectType, n *ast.ASTNode, path string) (any, error)
}

// ArtifactTranslator translates a verified artifact.
type ArtifactTranslator interface {
	Translate(ctx context.Context, a *artifact.Artifact) (any, error)
}

// Writer serializes a translated artifact.
type Writer interface {
	// Extension returns the file extension of the output, e.g. ".sql".
	Extension() string
	Write(w io.Writer, translated any) error
}

// =============================================================================
// Registry
// =============================================================================

// Registry holds the node and model translators of one target.
type Registry struct {
	mu     sync.RWMutex
	nodes  map[string]NodeTranslator
	models map[string]ModelTranslator
	fold   cases.Caser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:  make(map[string]NodeTranslator),
		models: make(map[string]ModelTranslator),
		fold:   cases.Fold(),
	}
}

// Handle registers t for the qualified node kind, replacing any existing
// translator.
func (r *Registry) Handle(kind string, t NodeTranslator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[kind] = t
}

// HandleAll registers t for each local kind name in namespace.
func (r *Registry) HandleAll(namespace string, t NodeTranslator, kinds ...string) {
	for _, kind := range kinds {
		r.Handle(ast.Qualify(namespace, kind), t)
	}
}

// HandleModel registers t for a model type name. Lookup is
// case-insensitive.
func (r *Registry) HandleModel(typeName string, t ModelTranslator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[r.fold.String(typeName)] = t
}

// Translator returns the translator for a qualified node kind.
func (r *Registry) Translator(kind string) (NodeTranslator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.nodes[kind]
	return t, ok
}

// ModelTranslator returns the model translator for a type name.
func (r *Registry) ModelTranslator(typeName string) (ModelTranslator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.models[r.fold.String(typeName)]
	return t, ok
}

// Kinds returns the registered node kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.nodes))
	for k := range r.nodes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// =============================================================================
// Context
// =============================================================================

// Options configures a Context.
type Options struct {
	Registry    *Registry
	Annotations *ast.Annotations

	// State is backend state, available to translators through State.
	State any

	Logger *slog.Logger
}

// Context is one translation run.
type Context struct {
	ctx         context.Context
	registry    *Registry
	annotations *ast.Annotations
	state       any
	logger      *slog.Logger
}

// NewContext creates a translation context.
func NewContext(ctx context.Context, opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	annotations := opts.Annotations
	if annotations == nil {
		annotations = ast.NewAnnotations()
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Context{
		ctx:         ctx,
		registry:    registry,
		annotations: annotations,
		state:       opts.State,
		logger:      logger,
	}
}

// Context returns the context.Context of the run.
func (c *Context) Context() context.Context { return c.ctx }

// State returns the backend state.
func (c *Context) State() any { return c.state }

// Logger returns the run logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// ResultType returns the verified result type of n, or nil.
func (c *Context) ResultType(n *ast.ASTNode) types.DataType {
	return c.annotations.ResultType(n)
}

// SourceType returns the type a property node was resolved against.
func (c *Context) SourceType(n *ast.ASTNode) types.DataType {
	return c.annotations.SourceType(n)
}

// Translate dispatches n to the translator registered for its kind.
func (c *Context) Translate(n *ast.ASTNode) (any, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errors.New("translate: nil node")
	}
	if !c.annotations.HasResultType(n) {
		return nil, fmt.Errorf("%w: %s", ErrNotVerified, n)
	}
	t, ok := c.registry.Translator(n.NodeType)
	if !ok {
		return nil, &HandlerError{Name: n.NodeType}
	}
	return t(c, n)
}

// HasModelTranslator reports whether a model translator is registered for
// the type name.
func (c *Context) HasModelTranslator(typeName string) bool {
	_, ok := c.registry.ModelTranslator(typeName)
	return ok
}

// TransformModel maps a source model type onto the target schema.
func (c *Context) TransformModel(source *types.ObjectType) (*types.ObjectType, error) {
	t, ok := c.registry.ModelTranslator(source.Name())
	if !ok {
		return nil, &HandlerError{Name: source.Name()}
	}
	return t.TransformModel(c, source)
}

// TransformModelPath maps a property path on a source model type onto a
// target expression.
func (c *Context) TransformModelPath(source *types.ObjectType, n *ast.ASTNode, path string) (any, error) {
	t, ok := c.registry.ModelTranslator(source.Name())
	if !ok {
		return nil, &HandlerError{Name: source.Name()}
	}
	return t.TransformModelPath(c, source, n, path)
}
