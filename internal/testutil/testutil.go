package testutil

import (
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
)

// Expr builds a HeD expression node named "operand".
func Expr(kind string, attrs ast.Attrs, children ...ast.Element) *ast.ASTNode {
	return ast.NewExpr("operand", ast.HeD(kind), attrs, children...)
}

// ELM builds an ELM expression node named "operand".
func ELM(kind string, attrs ast.Attrs, children ...ast.Element) *ast.ASTNode {
	return ast.NewExpr("operand", ast.ELM(kind), attrs, children...)
}

// Node builds a structural HeD node.
func Node(name, kind string, attrs ast.Attrs, children ...ast.Element) *ast.Node {
	nodeType := ""
	if kind != "" {
		nodeType = ast.HeD(kind)
	}
	return ast.NewNode(name, nodeType, attrs, children...)
}

// Named renames n and returns it.
func Named(name string, n *ast.ASTNode) *ast.ASTNode {
	n.Name = name
	return n
}

// At sets the source position of n and returns it.
func At(line, col int, n *ast.ASTNode) *ast.ASTNode {
	n.Line, n.LinePos = line, col
	return n
}

// Literal builds a Literal of the given value type.
func Literal(valueType, value string) *ast.ASTNode {
	return Expr("Literal", ast.Attrs{"valueType": valueType, "value": value})
}

// Int builds an Integer literal.
func Int(value string) *ast.ASTNode { return Literal("Integer", value) }

// Str builds a String literal.
func Str(value string) *ast.ASTNode { return Literal("String", value) }

// Bool builds a Boolean literal.
func Bool(value string) *ast.ASTNode { return Literal("Boolean", value) }

// Ref builds an ExpressionRef.
func Ref(name string) *ast.ASTNode {
	return Expr("ExpressionRef", ast.Attrs{"name": name})
}

// Def builds an expression definition.
func Def(name string, e *ast.ASTNode) *artifact.ExpressionDef {
	return &artifact.ExpressionDef{Name: name, Expression: Named("expression", e)}
}

// Artifact builds an artifact with the given expression definitions.
func Artifact(name string, defs ...*artifact.ExpressionDef) *artifact.Artifact {
	return &artifact.Artifact{
		Identifier:  artifact.Identifier{Root: name},
		Definitions: artifact.Definitions{Expressions: defs},
	}
}
