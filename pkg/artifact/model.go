// Package artifact holds the declarative metadata of clinical artifacts and
// libraries, and reads them from YAML documents.
package artifact

import (
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// ModelRef names a data model the artifact's data requests are written against.
type ModelRef struct {
	Name string
	URI  string
}

// LibraryRef references a library used by an artifact or another library.
type LibraryRef struct {
	Name      string
	Version   string
	MediaType string
	// Path locates the library document, relative paths already joined with
	// the directory of the referencing document. Empty when the library is
	// found by name.
	Path string
}

// ParameterDef is a named, typed input of an artifact or library.
type ParameterDef struct {
	Name     string
	TypeName string
	Default  *ast.ASTNode

	// ParameterType is assigned when the parameter is verified.
	ParameterType types.DataType
}

// ExpressionDef is a named expression.
type ExpressionDef struct {
	Name       string
	Expression *ast.ASTNode
}

// Code is a member of a value set.
type Code struct {
	Code    string
	System  string
	Display string
}

// ValueSetDef declares a value set.
type ValueSetDef struct {
	Name        string
	ID          string
	Version     string
	CodeSystems []string
	Codes       []Code
}

// CodeSystemDef declares a code system.
type CodeSystemDef struct {
	Name    string
	ID      string
	Version string
}

// Definitions is the content shared by artifacts and libraries.
type Definitions struct {
	Models      []ModelRef
	Libraries   []LibraryRef
	Parameters  []*ParameterDef
	Expressions []*ExpressionDef
	CodeSystems []*CodeSystemDef
	ValueSets   []*ValueSetDef
}

// Parameter returns the parameter with the given (case-insensitive) name.
func (d *Definitions) Parameter(name string) (*ParameterDef, bool) {
	for _, p := range d.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// Expression returns the expression with the given (case-insensitive) name.
func (d *Definitions) Expression(name string) (*ExpressionDef, bool) {
	for _, e := range d.Expressions {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// ValueSet returns the value set with the given (case-insensitive) name.
func (d *Definitions) ValueSet(name string) (*ValueSetDef, bool) {
	for _, v := range d.ValueSets {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return nil, false
}

// CodeSystem returns the code system with the given (case-insensitive) name.
func (d *Definitions) CodeSystem(name string) (*CodeSystemDef, bool) {
	for _, c := range d.CodeSystems {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// Library is a reusable set of definitions.
type Library struct {
	Name    string
	Version string
	Definitions

	// Source is the file the library was read from, if any.
	Source string
}

// Identifier identifies an artifact.
type Identifier struct {
	Root    string
	Version string
}

// Artifact is a clinical decision support artifact.
type Artifact struct {
	Identifier  Identifier
	Title       string
	Description string
	Definitions

	// Conditions must each evaluate to a boolean.
	Conditions []*ast.ASTNode

	// Triggers and ActionGroup may carry expressions anywhere in their trees.
	Triggers    []ast.Element
	ActionGroup ast.Element

	Source string
}

// Name returns the artifact name used to qualify its translated objects.
func (a *Artifact) Name() string {
	if a.Identifier.Root != "" {
		return a.Identifier.Root
	}
	return a.Title
}
