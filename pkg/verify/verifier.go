// Package verify type-checks clinical expression trees.
//
// A Verifier is built per run. It owns the operator registry, the per-kind
// node verifiers, the model type resolvers and the annotation side table
// that records each node's result type. Verification never modifies the
// tree itself.
//
// Verifiers return a result type or an error. The dispatcher turns errors
// into position-tagged diagnostics and carries on with sibling
// definitions, so a single run reports every independent problem. The
// only error that escapes is a configuration error: a node kind with no
// registered verifier.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/models"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// ErrNoVerifier is returned when a node kind has no registered verifier.
var ErrNoVerifier = errors.New("no verifier registered for node type")

// NodeVerifier type-checks one kind of node and returns its result type.
type NodeVerifier func(c *Context, n *ast.ASTNode) (types.DataType, error)

// LibraryVerifier verifies a library in a fresh context.
type LibraryVerifier interface {
	VerifyLibrary(ctx context.Context, lib *artifact.Library) (Diagnostics, error)
}

// LibraryResolver resolves library references to verified libraries.
// Diagnostics are returned the first time a library is verified only.
type LibraryResolver interface {
	Resolve(ctx context.Context, ref artifact.LibraryRef, lv LibraryVerifier) (*artifact.Library, Diagnostics, error)
}

// Options configures a Verifier.
type Options struct {
	// Operators is the operator registry. Nil installs the base and clinical
	// modules into a new registry.
	Operators *operator.Registry

	// Types is the run's type resolver. Nil creates one.
	Types *types.Resolver

	// Models are installed in order: their type resolvers and operator
	// modules.
	Models []*models.Model

	// Libraries resolves library references. Optional.
	Libraries LibraryResolver

	Logger *slog.Logger
}

// Verifier holds the per-run verification state.
type Verifier struct {
	operators     *operator.Registry
	types         *types.Resolver
	handlers      map[string]NodeVerifier
	typeResolvers map[string]models.TypeResolver
	models        map[string]*models.Model
	libraries     LibraryResolver
	annotations   *ast.Annotations
	attempted     map[*ast.ASTNode]struct{}
	caser         cases.Caser
	logger        *slog.Logger

	// fatal stops verification; it is returned by VerifyArtifact and
	// VerifyLibrary.
	fatal error
}

// New creates a verifier with the default node verifiers registered.
func New(opts Options) (*Verifier, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ops := opts.Operators
	if ops == nil {
		ops = operator.NewRegistry()
		if err := ops.Install(operator.Base{}, operator.Clinical{}); err != nil {
			return nil, fmt.Errorf("installing base operators: %w", err)
		}
	}
	tr := opts.Types
	if tr == nil {
		tr = types.NewResolver()
	}

	v := &Verifier{
		operators:     ops,
		types:         tr,
		handlers:      make(map[string]NodeVerifier),
		typeResolvers: make(map[string]models.TypeResolver),
		models:        make(map[string]*models.Model),
		libraries:     opts.Libraries,
		annotations:   ast.NewAnnotations(),
		attempted:     make(map[*ast.ASTNode]struct{}),
		caser:         cases.Fold(),
		logger:        logger,
	}
	for _, m := range opts.Models {
		if err := v.RegisterModel(m); err != nil {
			return nil, err
		}
	}
	registerDefaults(v)
	v.HandleOperators(ast.NamespaceHeD, ops.Names()...)
	return v, nil
}

func (v *Verifier) fold(s string) string { return v.caser.String(s) }

// Operators returns the operator registry.
func (v *Verifier) Operators() *operator.Registry { return v.operators }

// Types returns the run's type resolver.
func (v *Verifier) Types() *types.Resolver { return v.types }

// Annotations returns the result types recorded so far.
func (v *Verifier) Annotations() *ast.Annotations { return v.annotations }

// Handle registers h for the qualified node kind, replacing any existing
// verifier.
func (v *Verifier) Handle(kind string, h NodeVerifier) {
	v.handlers[kind] = h
}

// HandleOperators registers the generic operator verifier for each name in
// namespace that has no verifier yet.
func (v *Verifier) HandleOperators(namespace string, names ...string) {
	for _, name := range names {
		kind := ast.Qualify(namespace, name)
		if _, ok := v.handlers[kind]; !ok {
			v.handlers[kind] = verifyOperator
		}
	}
}

// Kinds returns the registered node kinds, sorted.
func (v *Verifier) Kinds() []string {
	kinds := make([]string, 0, len(v.handlers))
	for k := range v.handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RegisterModel installs a model: its type resolver under each of its
// qualifiers, its native types and its operator module.
func (v *Verifier) RegisterModel(m *models.Model) error {
	resolver, reg, err := m.Install(v.types)
	if err != nil {
		return err
	}
	for _, q := range m.Qualifiers() {
		v.RegisterTypeResolver(q, resolver)
		v.models[v.fold(q)] = m
	}
	if reg != nil {
		if err := v.operators.Install(reg); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
	}
	v.logger.Debug("registered model", "model", m.Name, "classes", len(m.Classes))
	return nil
}

// RegisterTypeResolver registers r for a full type name or a qualifier.
func (v *Verifier) RegisterTypeResolver(name string, r models.TypeResolver) {
	v.typeResolvers[v.fold(name)] = r
}

// ResolveType resolves a type name. Lookup order: a resolver registered
// for the full name, List<T>/Interval<T> forms, built-in types, then a
// resolver registered for the name's qualifier.
func (v *Verifier) ResolveType(name string) (types.DataType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Errorf("Could not resolve a type handler for type name %s.", name)
	}
	if r, ok := v.typeResolvers[v.fold(name)]; ok {
		return v.resolveWith(r, name)
	}
	if generic, arg, ok := types.SplitGeneric(name); ok {
		inner, err := v.ResolveType(arg)
		if err != nil {
			return nil, err
		}
		if generic == "List" {
			return types.NewListType(inner), nil
		}
		return types.NewIntervalType(inner), nil
	}
	if t, ok := types.Builtin(name); ok {
		return t, nil
	}
	q := ast.Qualifier(name)
	if q != name {
		if r, ok := v.typeResolvers[v.fold(q)]; ok {
			return v.resolveWith(r, name)
		}
		if q == ast.NamespaceHeD || q == ast.NamespaceELM {
			if t, ok := types.Builtin(ast.LocalName(name)); ok {
				return t, nil
			}
		}
	}
	return nil, Errorf("Could not resolve a type handler for type name %s.", name)
}

func (v *Verifier) resolveWith(r models.TypeResolver, name string) (types.DataType, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return nil, Wrap(err, err.Error())
	}
	return t, nil
}

func (v *Verifier) failed(n *ast.ASTNode) bool {
	_, ok := v.attempted[n]
	return ok
}

func (v *Verifier) markFailed(n *ast.ASTNode) {
	v.attempted[n] = struct{}{}
}
