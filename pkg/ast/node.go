// Package ast defines the generic attributed tree that clinical artifacts are
// read into, and the side table that verification annotates it with.
//
// Every element of an artifact is a Node. Elements that denote expressions are
// ASTNodes; the rest (case items, query sources, response bindings, ...) are
// structural Nodes that carry expressions as children.
package ast

import (
	"fmt"
	"strings"
)

// Well-known node type namespaces.
const (
	NamespaceHeD = "urn:hl7-org:v3:knowledgeartifact:r1"
	NamespaceELM = "urn:hl7-org:elm:r1"
)

// Element is implemented by *Node and *ASTNode.
type Element interface {
	Base() *Node
}

// Position is a 1-based source location. The zero value means unknown.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Position) IsValid() bool { return p.Line > 0 }

// String returns "line,column".
func (p Position) String() string { return fmt.Sprintf("%d,%d", p.Line, p.Column) }

// Node is an element of an artifact.
type Node struct {
	// Name is the element name, e.g. "operand" or "caseItem".
	Name string

	// NodeType is the qualified type of the element, "<namespace>:<local>".
	NodeType string

	Children   []Element
	Attributes map[string]string

	// Line and LinePos locate the element in its source document; 0 if unknown.
	Line    int
	LinePos int
}

// Base implements Element.
func (n *Node) Base() *Node { return n }

// Pos returns the source position of the node.
func (n *Node) Pos() Position { return Position{Line: n.Line, Column: n.LinePos} }

// Kind returns the local part of the node type, e.g. "Equal".
func (n *Node) Kind() string { return LocalName(n.NodeType) }

// Namespace returns the namespace part of the node type.
func (n *Node) Namespace() string { return Qualifier(n.NodeType) }

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[name]
	return v, ok
}

// AttrOr returns the named attribute, or def when it is absent or empty.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok && v != "" {
		return v
	}
	return def
}

// Child returns the first child element with the given name.
func (n *Node) Child(name string) (Element, bool) {
	for _, c := range n.Children {
		if c.Base().Name == name {
			return c, true
		}
	}
	return nil, false
}

// ChildrenNamed returns all child elements with the given name, in order.
func (n *Node) ChildrenNamed(name string) []Element {
	var out []Element
	for _, c := range n.Children {
		if c.Base().Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ASTChildren returns the expression children, in order.
func (n *Node) ASTChildren() []*ASTNode {
	var out []*ASTNode
	for _, c := range n.Children {
		if a, ok := c.(*ASTNode); ok {
			out = append(out, a)
		}
	}
	return out
}

// ASTChild returns the first expression child with the given name.
func (n *Node) ASTChild(name string) (*ASTNode, bool) {
	for _, c := range n.Children {
		if a, ok := c.(*ASTNode); ok && a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// FirstASTChild returns the first expression child.
func (n *Node) FirstASTChild() (*ASTNode, bool) {
	for _, c := range n.Children {
		if a, ok := c.(*ASTNode); ok {
			return a, true
		}
	}
	return nil, false
}

// FormatMessage prefixes msg with the node position when it is known.
func (n *Node) FormatMessage(msg string) string {
	if n == nil || n.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%d,%d: %s", n.Line, n.LinePos, msg)
}

// String returns a short description used in logs.
func (n *Node) String() string {
	if n.NodeType == "" {
		return n.Name
	}
	return fmt.Sprintf("%s(%s)", n.Name, n.Kind())
}

// ASTNode is a node denoting an expression.
type ASTNode struct {
	Node

	Description string
}

// Qualifier returns the text before the last ':' of a qualified name, or the
// name itself when it is unqualified.
func Qualifier(qualified string) string {
	if i := strings.LastIndexByte(qualified, ':'); i >= 0 {
		return qualified[:i]
	}
	return qualified
}

// LocalName returns the text after the last ':' of a qualified name.
func LocalName(qualified string) string {
	if i := strings.LastIndexByte(qualified, ':'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// Qualify joins a namespace and a local name.
func Qualify(namespace, local string) string {
	return namespace + ":" + local
}

// HeD returns the qualified HeD node type for local.
func HeD(local string) string { return Qualify(NamespaceHeD, local) }

// ELM returns the qualified ELM node type for local.
func ELM(local string) string { return Qualify(NamespaceELM, local) }

// Walk calls fn for e and its descendants in depth-first order. Returning
// false from fn skips the children of that element.
func Walk(e Element, fn func(Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range e.Base().Children {
		Walk(c, fn)
	}
}

var (
	_ Element = (*Node)(nil)
	_ Element = (*ASTNode)(nil)
)
