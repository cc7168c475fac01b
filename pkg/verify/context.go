package verify

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Current is the default scope name of query, filter and foreach symbols.
const Current = "Current"

// Symbol binds a scope name to the type of the value in scope.
type Symbol struct {
	Name string
	Type types.DataType
}

// table is a case-insensitive name table.
type table[T any] struct {
	fold    cases.Caser
	entries map[string]T
}

func newTable[T any](fold cases.Caser) *table[T] {
	return &table[T]{fold: fold, entries: make(map[string]T)}
}

func (t *table[T]) add(name string, v T) bool {
	key := t.fold.String(name)
	if _, ok := t.entries[key]; ok {
		return false
	}
	t.entries[key] = v
	return true
}

func (t *table[T]) get(name string) (T, bool) {
	v, ok := t.entries[t.fold.String(name)]
	return v, ok
}

// Context is the state of verifying one artifact or library: the name
// tables in scope, the symbol stack and the collected diagnostics.
type Context struct {
	ctx     context.Context
	v       *Verifier
	library string

	models      *table[artifact.ModelRef]
	libraries   *table[artifact.LibraryRef]
	resolved    *table[*artifact.Library]
	parameters  *table[*artifact.ParameterDef]
	expressions *table[*artifact.ExpressionDef]
	valueSets   *table[*artifact.ValueSetDef]
	codeSystems *table[*artifact.CodeSystemDef]

	symbols []Symbol
	guard   *Guard
	diags   Diagnostics
}

func (v *Verifier) newContext(ctx context.Context, library string) *Context {
	fold := cases.Fold()
	return &Context{
		ctx:         ctx,
		v:           v,
		library:     library,
		models:      newTable[artifact.ModelRef](fold),
		libraries:   newTable[artifact.LibraryRef](fold),
		resolved:    newTable[*artifact.Library](fold),
		parameters:  newTable[*artifact.ParameterDef](fold),
		expressions: newTable[*artifact.ExpressionDef](fold),
		valueSets:   newTable[*artifact.ValueSetDef](fold),
		codeSystems: newTable[*artifact.CodeSystemDef](fold),
		guard:       NewGuard(),
	}
}

// Context returns the context.Context of the run.
func (c *Context) Context() context.Context { return c.ctx }

// Verifier returns the verifier the context belongs to.
func (c *Context) Verifier() *Verifier { return c.v }

// Library returns the name of the library being verified, or "" for an
// artifact.
func (c *Context) Library() string { return c.library }

// Diagnostics returns the diagnostics collected so far.
func (c *Context) Diagnostics() Diagnostics { return c.diags }

// =============================================================================
// Dispatch
// =============================================================================

// Verify type-checks n and returns its result type, or nil when n could
// not be verified. Annotated nodes return their recorded type; nodes that
// already failed return nil without reporting again.
func (c *Context) Verify(n *ast.ASTNode) types.DataType {
	if n == nil {
		return nil
	}
	v := c.v
	if t := v.annotations.ResultType(n); t != nil {
		return t
	}
	if v.fatal != nil || v.failed(n) {
		return nil
	}
	if err := c.ctx.Err(); err != nil {
		v.fatal = err
		return nil
	}

	h, ok := v.handlers[n.NodeType]
	if !ok {
		v.fatal = fmt.Errorf("%w: %s", ErrNoVerifier, n.NodeType)
		return nil
	}

	t, err := h(c, n)
	if err == nil && t == nil {
		err = Errorf("Could not determine type of '%s' expression.", n.Name)
	}
	if err != nil {
		v.markFailed(n)
		if v.fatal == nil {
			c.report(err, &n.Node)
		}
		return nil
	}
	if err := v.annotations.SetResultType(n, t); err != nil {
		return v.annotations.ResultType(n)
	}
	return t
}

// VerifyChildren verifies the expression children of n in order and
// returns their result types. Failed children yield nil entries.
func (c *Context) VerifyChildren(n *ast.ASTNode) []types.DataType {
	children := n.ASTChildren()
	out := make([]types.DataType, len(children))
	for i, child := range children {
		out[i] = c.Verify(child)
	}
	return out
}

// ResultType returns the recorded result type of n.
func (c *Context) ResultType(n *ast.ASTNode) types.DataType {
	return c.v.annotations.ResultType(n)
}

// Report records err against n. Diagnostics without a position take the
// position of n.
func (c *Context) Report(err error, n ast.Element) {
	var node *ast.Node
	if n != nil {
		node = n.Base()
	}
	c.report(err, node)
}

func (c *Context) report(err error, n *ast.Node) {
	d := diagnosticAt(err, n)
	c.v.logger.Debug("verification message", "message", d.Error(), "warning", d.IsWarning)
	c.diags = append(c.diags, d)
}

func (c *Context) merge(ds Diagnostics) {
	c.diags = append(c.diags, ds...)
}

// =============================================================================
// Types, operators and properties
// =============================================================================

// ResolveType resolves a type name through the verifier's type resolvers.
func (c *Context) ResolveType(name string) (types.DataType, error) {
	return c.v.ResolveType(name)
}

// ResolveCall resolves an operator overload.
func (c *Context) ResolveCall(name string, sig operator.Signature) (*operator.Operator, error) {
	op, err := c.v.operators.ResolveCall(name, sig)
	if err != nil {
		return nil, Wrap(err, err.Error())
	}
	return op, nil
}

// ResolveProperty resolves a property path against t.
func (c *Context) ResolveProperty(t types.DataType, path string) (types.DataType, error) {
	if t == nil {
		return nil, Errorf("Could not determine source type for property path '%s'.", path)
	}
	pt, err := types.ResolveProperty(t, path)
	if err != nil {
		return nil, Wrap(err, err.Error())
	}
	return pt, nil
}

// VerifyType requires actual to be a subtype of expected.
func (c *Context) VerifyType(actual, expected types.DataType) error {
	if types.SubTypeOf(actual, expected) {
		return nil
	}
	return Errorf("Expected an expression of type '%s', but found an expression of type '%s'.",
		typeName(expected), typeName(actual))
}

func typeName(t types.DataType) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}

// =============================================================================
// Symbols
// =============================================================================

// PushSymbol brings s into scope.
func (c *Context) PushSymbol(s Symbol) {
	c.symbols = append(c.symbols, s)
}

// PopSymbol removes the most recently pushed symbol.
func (c *Context) PopSymbol() {
	if len(c.symbols) > 0 {
		c.symbols = c.symbols[:len(c.symbols)-1]
	}
}

// ResolveSymbol returns the innermost symbol with the given name.
func (c *Context) ResolveSymbol(name string) (Symbol, error) {
	fold := cases.Fold()
	key := fold.String(name)
	for i := len(c.symbols) - 1; i >= 0; i-- {
		if fold.String(c.symbols[i].Name) == key {
			return c.symbols[i], nil
		}
	}
	return Symbol{}, Errorf("Could not resolve symbol name %s.", name)
}

// =============================================================================
// Definitions
// =============================================================================

// AddModel brings a model reference into scope.
func (c *Context) AddModel(m artifact.ModelRef) error {
	if _, ok := c.v.models[c.v.fold(m.Name)]; !ok {
		if _, ok := c.v.models[c.v.fold(m.URI)]; !ok {
			return Errorf("Could not resolve model %s.", modelName(m))
		}
	}
	c.models.add(modelName(m), m)
	return nil
}

func modelName(m artifact.ModelRef) string {
	if m.Name != "" {
		return m.Name
	}
	return m.URI
}

// AddLibraryRef brings a library reference into scope. The library is
// resolved on first use.
func (c *Context) AddLibraryRef(ref artifact.LibraryRef) error {
	if !c.libraries.add(ref.Name, ref) {
		return Errorf("A library named %s is already defined in this scope.", ref.Name)
	}
	return nil
}

// AddParameterDef brings a parameter into scope.
func (c *Context) AddParameterDef(p *artifact.ParameterDef) error {
	if !c.parameters.add(p.Name, p) {
		return Errorf("A parameter named %s is already defined in this scope.", p.Name)
	}
	return nil
}

// AddExpressionDef brings an expression definition into scope.
func (c *Context) AddExpressionDef(e *artifact.ExpressionDef) error {
	if !c.expressions.add(e.Name, e) {
		return Errorf("An expression named %s is already defined in this scope.", e.Name)
	}
	return nil
}

// AddValueSetDef brings a value set into scope.
func (c *Context) AddValueSetDef(vs *artifact.ValueSetDef) error {
	if !c.valueSets.add(vs.Name, vs) {
		return Errorf("A valueset named %s is already defined in this scope.", vs.Name)
	}
	return nil
}

// AddCodeSystemDef brings a code system into scope.
func (c *Context) AddCodeSystemDef(cs *artifact.CodeSystemDef) error {
	if !c.codeSystems.add(cs.Name, cs) {
		return Errorf("A codesystem named %s is already defined in this scope.", cs.Name)
	}
	return nil
}

// ResolveLibrary returns the verified library referenced by name.
func (c *Context) ResolveLibrary(name string) (*artifact.Library, error) {
	if lib, ok := c.resolved.get(name); ok {
		return lib, nil
	}
	ref, ok := c.libraries.get(name)
	if !ok {
		return nil, Errorf("Could not resolve library name %s.", name)
	}
	if c.v.libraries == nil {
		return nil, Errorf("No library resolver is configured to resolve library %s.", ref.Name)
	}
	lib, diags, err := c.v.libraries.Resolve(c.ctx, ref, c.v)
	c.merge(diags)
	if err != nil {
		return nil, Wrap(err, err.Error())
	}
	c.resolved.add(name, lib)
	return lib, nil
}

// ResolveParameterRef resolves a parameter, optionally qualified by a
// library name.
func (c *Context) ResolveParameterRef(library, name string) (*artifact.ParameterDef, error) {
	if library != "" {
		lib, err := c.ResolveLibrary(library)
		if err != nil {
			return nil, err
		}
		p, ok := lib.Parameter(name)
		if !ok {
			return nil, Errorf("Could not resolve parameter reference %s in library %s.", name, library)
		}
		return p, nil
	}
	p, ok := c.parameters.get(name)
	if !ok {
		return nil, Errorf("Could not resolve parameter name %s.", name)
	}
	return p, nil
}

// ResolveExpressionRef resolves an expression definition, optionally
// qualified by a library name. A local definition that has not been
// verified yet is verified on demand.
func (c *Context) ResolveExpressionRef(library, name string) (*artifact.ExpressionDef, error) {
	if name == "" {
		return nil, Errorf("Expression reference name is required.")
	}
	if library != "" {
		lib, err := c.ResolveLibrary(library)
		if err != nil {
			return nil, err
		}
		e, ok := lib.Expression(name)
		if !ok {
			return nil, Errorf("Could not resolve expression reference %s in library %s.", name, library)
		}
		return e, nil
	}
	e, ok := c.expressions.get(name)
	if !ok {
		return nil, Errorf("Could not resolve expression reference %s.", name)
	}
	if c.ResultType(e.Expression) == nil {
		if err := c.verifyExpressionDef(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (c *Context) verifyExpressionDef(e *artifact.ExpressionDef) error {
	if !c.guard.Enter(e.Name) {
		return Errorf("Reference to expression %s is invalid because it results in a circular reference.", e.Name)
	}
	defer c.guard.Leave(e.Name)

	c.v.logger.Debug("verifying expression", "name", e.Name, "library", c.library)
	c.Verify(e.Expression)
	return nil
}

// ResolveValueSetRef resolves a value set, optionally qualified by a
// library name.
func (c *Context) ResolveValueSetRef(library, name string) (*artifact.ValueSetDef, error) {
	if library != "" {
		lib, err := c.ResolveLibrary(library)
		if err != nil {
			return nil, err
		}
		vs, ok := lib.ValueSet(name)
		if !ok {
			return nil, Errorf("Could not resolve valueset reference %s in library %s.", name, library)
		}
		return vs, nil
	}
	vs, ok := c.valueSets.get(name)
	if !ok {
		return nil, Errorf("Could not resolve valueset name %s.", name)
	}
	return vs, nil
}

// ResolveCodeSystemRef resolves a code system, optionally qualified by a
// library name.
func (c *Context) ResolveCodeSystemRef(library, name string) (*artifact.CodeSystemDef, error) {
	if library != "" {
		lib, err := c.ResolveLibrary(library)
		if err != nil {
			return nil, err
		}
		cs, ok := lib.CodeSystem(name)
		if !ok {
			return nil, Errorf("Could not resolve codesystem reference %s in library %s.", name, library)
		}
		return cs, nil
	}
	cs, ok := c.codeSystems.get(name)
	if !ok {
		return nil, Errorf("Could not resolve codesystem name %s.", name)
	}
	return cs, nil
}
