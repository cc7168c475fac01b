package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
)

// ValueSetColumns are the columns of the ValueSet table.
var ValueSetColumns = []string{"ValueSetName", "Code", "CodeSystem", "Display"}

// LibrarySource orders the libraries an artifact imports. It is satisfied
// by *library.Resolver.
type LibrarySource interface {
	Ordered(refs []artifact.LibraryRef) ([]*artifact.Library, error)
}

// Options configures a Translator.
type Options struct {
	// Registry holds the node and model translators. Nil uses NewRegistry.
	Registry *translate.Registry

	// Annotations are the result types verification assigned.
	Annotations *ast.Annotations

	// Libraries orders imported libraries. Required when an artifact
	// imports libraries.
	Libraries LibrarySource

	Logger *slog.Logger
}

// Translator translates verified artifacts into SQL batches:
//
//   - each value set becomes a DELETE and an INSERT of its codes into the
//     ValueSet table,
//   - each parameter with a default and each expression becomes a view
//     named <scope>_<name>,
//   - each condition of the artifact becomes a view <artifact>_Condition<n>.
//
// Imported libraries come first, each once, after the libraries they
// import. Views are dropped before any is created, dependents first. Two
// definitions whose view names differ only in dots, underscores or case
// are rejected with a *ViewCollisionError.
type Translator struct {
	registry    *translate.Registry
	annotations *ast.Annotations
	libraries   LibrarySource
	logger      *slog.Logger
}

// New creates a translator.
func New(opts Options) *Translator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	annotations := opts.Annotations
	if annotations == nil {
		annotations = ast.NewAnnotations()
	}
	return &Translator{
		registry:    registry,
		annotations: annotations,
		libraries:   opts.Libraries,
		logger:      logger,
	}
}

// Translate implements translate.ArtifactTranslator. The result is a
// *sqlast.Batch.
func (t *Translator) Translate(ctx context.Context, a *artifact.Artifact) (any, error) {
	return t.TranslateArtifact(ctx, a)
}

// batchBuilder keeps view drops apart so they can run before every create.
type batchBuilder struct {
	drops []sqlast.Stmt
	stmts []sqlast.Stmt
	// views maps lower-cased view names to the definition that claimed them.
	views map[string]string
}

func (b *batchBuilder) claim(view, definition string) error {
	key := strings.ToLower(view)
	if first, ok := b.views[key]; ok {
		return &ViewCollisionError{View: view, First: first, Second: definition}
	}
	if b.views == nil {
		b.views = make(map[string]string)
	}
	b.views[key] = definition
	return nil
}

func (b *batchBuilder) batch() *sqlast.Batch {
	out := &sqlast.Batch{}
	for i := len(b.drops) - 1; i >= 0; i-- {
		out.Add(b.drops[i])
	}
	out.Add(b.stmts...)
	return out
}

// TranslateArtifact translates a and the libraries it imports.
func (t *Translator) TranslateArtifact(ctx context.Context, a *artifact.Artifact) (*sqlast.Batch, error) {
	b := &batchBuilder{}

	if len(a.Libraries) > 0 {
		if t.libraries == nil {
			return nil, errors.New("sqlgen: artifact imports libraries but no library source is configured")
		}
		libs, err := t.libraries.Ordered(a.Libraries)
		if err != nil {
			return nil, fmt.Errorf("ordering libraries: %w", err)
		}
		for _, lib := range libs {
			t.logger.Debug("translating library", "library", lib.Name)
			if err := t.translateDefinitions(ctx, b, lib.Name, &lib.Definitions); err != nil {
				return nil, err
			}
		}
	}

	name := a.Name()
	t.logger.Debug("translating artifact", "artifact", name)
	if err := t.translateDefinitions(ctx, b, name, &a.Definitions); err != nil {
		return nil, err
	}

	c := t.newContext(ctx, name)
	for i, cond := range a.Conditions {
		conditionName := fmt.Sprintf("Condition%d", i+1)
		if err := t.addView(c, b, name, conditionName, cond); err != nil {
			return nil, err
		}
	}
	return b.batch(), nil
}

func (t *Translator) newContext(ctx context.Context, scope string) *translate.Context {
	return NewContext(ctx, translate.Options{
		Registry:    t.registry,
		Annotations: t.annotations,
		Logger:      t.logger,
	}, scope)
}

func (t *Translator) translateDefinitions(ctx context.Context, b *batchBuilder, scope string, defs *artifact.Definitions) error {
	for _, vs := range defs.ValueSets {
		b.stmts = append(b.stmts, valueSetStatements(scope, vs)...)
	}

	c := t.newContext(ctx, scope)
	for _, p := range defs.Parameters {
		if p.Default == nil {
			continue
		}
		if err := t.addView(c, b, scope, p.Name, p.Default); err != nil {
			return err
		}
	}
	for _, e := range defs.Expressions {
		if err := t.addView(c, b, scope, e.Name, e.Expression); err != nil {
			return err
		}
	}
	return nil
}

// addView translates a definition into a view. Scalars become a single
// value column; booleans are stored as 1 or 0.
func (t *Translator) addView(c *translate.Context, b *batchBuilder, scope, name string, n *ast.ASTNode) error {
	t.logger.Debug("translating definition", "scope", scope, "name", name)

	translated, err := c.Translate(n)
	if err != nil {
		return fmt.Errorf("translating %s.%s: %w", scope, name, err)
	}
	sel, err := relation(translated)
	if err != nil {
		return fmt.Errorf("translating %s.%s: %w", scope, name, err)
	}

	view := ObjectName(scope, name)
	if err := b.claim(view, scope+"."+name); err != nil {
		return err
	}
	b.drops = append(b.drops, &sqlast.DropView{Name: view, IfExists: true})
	b.stmts = append(b.stmts, &sqlast.CreateView{Name: view, Select: sel})
	return nil
}

// valueSetStatements replaces the rows of a value set in the ValueSet table.
func valueSetStatements(scope string, vs *artifact.ValueSetDef) []sqlast.Stmt {
	name := ValueSetName(scope, vs.Name)
	stmts := []sqlast.Stmt{&sqlast.Delete{
		Table: ValueSetTable,
		Where: sqlast.Binary(&sqlast.ColumnRef{Column: "ValueSetName"}, sqlast.OpEq, sqlast.String(name)),
	}}
	if len(vs.Codes) == 0 {
		return stmts
	}

	insert := &sqlast.Insert{Table: ValueSetTable, Columns: ValueSetColumns}
	for _, code := range vs.Codes {
		system := code.System
		if system == "" && len(vs.CodeSystems) > 0 {
			system = vs.CodeSystems[0]
		}
		insert.Rows = append(insert.Rows, []sqlast.Expr{
			sqlast.String(name),
			sqlast.String(code.Code),
			nullable(system),
			nullable(code.Display),
		})
	}
	return append(stmts, insert)
}

func nullable(s string) sqlast.Expr {
	if s == "" {
		return sqlast.Null()
	}
	return sqlast.String(s)
}

var _ translate.ArtifactTranslator = (*Translator)(nil)
