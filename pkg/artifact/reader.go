package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leaphed/pkg/ast"
)

// Document kinds.
var (
	ErrNotArtifact = errors.New("document does not contain an artifact")
	ErrNotLibrary  = errors.New("document does not contain a library")
)

// ParseError describes a malformed document.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// Document is a parsed YAML document holding exactly one of an artifact or a
// library.
type Document struct {
	Artifact *Artifact
	Library  *Library
}

// ReadFile parses the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// ReadArtifactFile parses the artifact at path.
func ReadArtifactFile(path string) (*Artifact, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if doc.Artifact == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotArtifact)
	}
	return doc.Artifact, nil
}

// ReadLibraryFile parses the library at path.
func ReadLibraryFile(path string) (*Library, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if doc.Library == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotLibrary)
	}
	return doc.Library, nil
}

// Parse reads a document. source names the document in errors and anchors
// relative library paths; it may be empty.
//
// Expressions are written as mappings:
//
//	expr: Greater            # node kind; "elm:" selects the ELM namespace
//	name: operand            # element name, defaults to "operand"
//	attrs: {valueType: Integer}
//	children: [...]
//
// Scalar keys other than the reserved ones are attributes. A mapping with a
// "node" key instead of "expr" is a structural element, such as a case item.
func Parse(data []byte, source string) (*Document, error) {
	var raw documentYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{File: source, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	r := &reader{source: source}
	doc := &Document{}
	switch {
	case raw.Artifact != nil && raw.Library != nil:
		return nil, &ParseError{File: source, Message: "document must contain either an artifact or a library, not both"}
	case raw.Artifact != nil:
		a, err := r.artifact(raw.Artifact)
		if err != nil {
			return nil, err
		}
		doc.Artifact = a
	case raw.Library != nil:
		l, err := r.library(raw.Library)
		if err != nil {
			return nil, err
		}
		doc.Library = l
	default:
		return nil, &ParseError{File: source, Message: "document must contain an artifact or a library"}
	}
	return doc, nil
}

type documentYAML struct {
	Artifact *artifactYAML `yaml:"artifact"`
	Library  *libraryYAML  `yaml:"library"`
}

type definitionsYAML struct {
	Models      []modelYAML      `yaml:"models"`
	Libraries   []libraryRefYAML `yaml:"libraries"`
	CodeSystems []codeSystemYAML `yaml:"codesystems"`
	ValueSets   []valueSetYAML   `yaml:"valuesets"`
	Parameters  []parameterYAML  `yaml:"parameters"`
	Expressions []expressionYAML `yaml:"expressions"`
}

type libraryYAML struct {
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	Definitions definitionsYAML `yaml:",inline"`
}

type artifactYAML struct {
	Identifier struct {
		Root    string `yaml:"root"`
		Version string `yaml:"version"`
	} `yaml:"identifier"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Definitions definitionsYAML `yaml:",inline"`
	Conditions  []yaml.Node     `yaml:"conditions"`
	Triggers    []yaml.Node     `yaml:"triggers"`
	ActionGroup yaml.Node       `yaml:"actionGroup"`
}

type modelYAML struct {
	Name string `yaml:"name"`
	URI  string `yaml:"uri"`
}

type libraryRefYAML struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	MediaType string `yaml:"mediaType"`
	Path      string `yaml:"path"`
}

type codeSystemYAML struct {
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

type valueSetYAML struct {
	Name        string     `yaml:"name"`
	ID          string     `yaml:"id"`
	Version     string     `yaml:"version"`
	CodeSystems []string   `yaml:"codesystems"`
	Codes       []codeYAML `yaml:"codes"`
}

type codeYAML struct {
	Code    string `yaml:"code"`
	System  string `yaml:"system"`
	Display string `yaml:"display"`
}

type parameterYAML struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

type expressionYAML struct {
	Name       string    `yaml:"name"`
	Expression yaml.Node `yaml:"expression"`
}

// Reserved keys of an expression mapping.
const (
	keyExpr        = "expr"
	keyNode        = "node"
	keyName        = "name"
	keyDescription = "description"
	keyAttrs       = "attrs"
	keyChildren    = "children"
)

type reader struct {
	source string
}

func (r *reader) errorf(n *yaml.Node, format string, args ...any) error {
	line := 0
	if n != nil {
		line = n.Line
	}
	return &ParseError{File: r.source, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (r *reader) library(raw *libraryYAML) (*Library, error) {
	if raw.Name == "" {
		return nil, r.errorf(nil, "library name is required")
	}
	l := &Library{Name: raw.Name, Version: raw.Version, Source: r.source}
	if err := r.definitions(&raw.Definitions, &l.Definitions); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *reader) artifact(raw *artifactYAML) (*Artifact, error) {
	a := &Artifact{
		Identifier:  Identifier{Root: raw.Identifier.Root, Version: raw.Identifier.Version},
		Title:       raw.Title,
		Description: raw.Description,
		Source:      r.source,
	}
	if a.Name() == "" {
		return nil, r.errorf(nil, "artifact identifier root or title is required")
	}
	if err := r.definitions(&raw.Definitions, &a.Definitions); err != nil {
		return nil, err
	}

	for i := range raw.Conditions {
		c, err := r.expression(&raw.Conditions[i], "condition")
		if err != nil {
			return nil, err
		}
		a.Conditions = append(a.Conditions, c)
	}
	for i := range raw.Triggers {
		t, err := r.element(&raw.Triggers[i], "trigger")
		if err != nil {
			return nil, err
		}
		a.Triggers = append(a.Triggers, t)
	}
	if !isZero(&raw.ActionGroup) {
		g, err := r.element(&raw.ActionGroup, "actionGroup")
		if err != nil {
			return nil, err
		}
		a.ActionGroup = g
	}
	return a, nil
}

func (r *reader) definitions(raw *definitionsYAML, d *Definitions) error {
	for _, m := range raw.Models {
		d.Models = append(d.Models, ModelRef(m))
	}
	for _, l := range raw.Libraries {
		if l.Name == "" {
			return r.errorf(nil, "library reference name is required")
		}
		d.Libraries = append(d.Libraries, LibraryRef{
			Name:      l.Name,
			Version:   l.Version,
			MediaType: l.MediaType,
			Path:      r.resolvePath(l.Path),
		})
	}
	for _, c := range raw.CodeSystems {
		d.CodeSystems = append(d.CodeSystems, &CodeSystemDef{Name: c.Name, ID: c.ID, Version: c.Version})
	}
	for _, v := range raw.ValueSets {
		vs := &ValueSetDef{Name: v.Name, ID: v.ID, Version: v.Version, CodeSystems: v.CodeSystems}
		for _, c := range v.Codes {
			vs.Codes = append(vs.Codes, Code(c))
		}
		d.ValueSets = append(d.ValueSets, vs)
	}
	for i := range raw.Parameters {
		p := &raw.Parameters[i]
		if p.Name == "" {
			return r.errorf(nil, "parameter name is required")
		}
		def := &ParameterDef{Name: p.Name, TypeName: p.Type}
		if !isZero(&p.Default) {
			n, err := r.expression(&p.Default, "default")
			if err != nil {
				return err
			}
			def.Default = n
		}
		d.Parameters = append(d.Parameters, def)
	}
	for i := range raw.Expressions {
		e := &raw.Expressions[i]
		if e.Name == "" {
			return r.errorf(&e.Expression, "expression name is required")
		}
		if isZero(&e.Expression) {
			return r.errorf(nil, "expression %s has no body", e.Name)
		}
		n, err := r.expression(&e.Expression, "expression")
		if err != nil {
			return err
		}
		d.Expressions = append(d.Expressions, &ExpressionDef{Name: e.Name, Expression: n})
	}
	return nil
}

func (r *reader) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || r.source == "" {
		return path
	}
	return filepath.Join(filepath.Dir(r.source), path)
}

// expression reads n, which must be an expression.
func (r *reader) expression(n *yaml.Node, defaultName string) (*ast.ASTNode, error) {
	e, err := r.element(n, defaultName)
	if err != nil {
		return nil, err
	}
	a, ok := e.(*ast.ASTNode)
	if !ok {
		return nil, r.errorf(n, "%s must be an expression", defaultName)
	}
	return a, nil
}

func (r *reader) element(n *yaml.Node, defaultName string) (ast.Element, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, r.errorf(n, "expected a mapping for %s", defaultName)
	}

	var (
		kind, name, description string
		isExpr, isNode          bool
		attrs                   = ast.Attrs{}
		children                []ast.Element
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case keyExpr, keyNode:
			if value.Kind != yaml.ScalarNode {
				return nil, r.errorf(value, "%s must be a scalar", key.Value)
			}
			kind = value.Value
			isExpr = isExpr || key.Value == keyExpr
			isNode = isNode || key.Value == keyNode
		case keyName:
			name = value.Value
		case keyDescription:
			description = value.Value
		case keyAttrs:
			if value.Kind != yaml.MappingNode {
				return nil, r.errorf(value, "attrs must be a mapping")
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				attrs[value.Content[j].Value] = value.Content[j+1].Value
			}
		case keyChildren:
			if value.Kind != yaml.SequenceNode {
				return nil, r.errorf(value, "children must be a sequence")
			}
			for _, c := range value.Content {
				child, err := r.element(c, "operand")
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		default:
			if value.Kind != yaml.ScalarNode {
				return nil, r.errorf(value, "unexpected key %q", key.Value)
			}
			attrs[key.Value] = value.Value
		}
	}

	if isExpr && isNode {
		return nil, r.errorf(n, "an element cannot be both an expression and a node")
	}
	if name == "" {
		name = defaultName
	}

	if !isExpr {
		node := ast.NewNode(name, qualifyKind(kind), attrs, children...)
		node.Line, node.LinePos = n.Line, n.Column
		return node, nil
	}
	if kind == "" {
		return nil, r.errorf(n, "expression kind is required")
	}
	expr := ast.NewExpr(name, qualifyKind(kind), attrs, children...)
	expr.Description = description
	expr.Line, expr.LinePos = n.Line, n.Column
	return expr, nil
}

// qualifyKind expands "hed:" and "elm:" prefixes and places bare kinds in
// the HeD namespace. Other qualified kinds are kept as written.
func qualifyKind(kind string) string {
	switch {
	case kind == "":
		return ""
	case strings.HasPrefix(kind, "hed:"):
		return ast.HeD(strings.TrimPrefix(kind, "hed:"))
	case strings.HasPrefix(kind, "elm:"):
		return ast.ELM(strings.TrimPrefix(kind, "elm:"))
	case strings.Contains(kind, ":"):
		return kind
	}
	return ast.HeD(kind)
}

func isZero(n *yaml.Node) bool {
	return n.Kind == 0
}
