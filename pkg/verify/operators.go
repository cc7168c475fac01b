package verify

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// verifyOperator resolves the node kind as an operator call on the types
// of its children.
func verifyOperator(c *Context, n *ast.ASTNode) (types.DataType, error) {
	return resolveOperator(c, n, n.Kind())
}

func resolveOperator(c *Context, n *ast.ASTNode, name string) (types.DataType, error) {
	children := n.ASTChildren()
	sig := make(operator.Signature, len(children))
	for i, child := range children {
		sig[i] = c.Verify(child)
	}
	for i, t := range sig {
		if t == nil {
			return nil, Errorf("Could not determine type of '%s' expression.", children[i].Name)
		}
	}
	op, err := c.ResolveCall(name, sig)
	if err != nil {
		return nil, err
	}
	return op.ResultType, nil
}

// operands verifies the children of n and requires at least want of them.
func operands(c *Context, n *ast.ASTNode, want int) ([]types.DataType, error) {
	ts := c.VerifyChildren(n)
	if len(ts) < want {
		return nil, Errorf("Expected at least %d operands for %s, found %d.", want, n.Kind(), len(ts))
	}
	return ts, nil
}

// naryVerifier requires every operand to be of operandType.
func naryVerifier(operandType, resultType types.DataType) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		for _, t := range c.VerifyChildren(n) {
			if err := c.VerifyType(t, operandType); err != nil {
				return nil, err
			}
		}
		return resultType, nil
	}
}

// =============================================================================
// Conditionals
// =============================================================================

func verifyConditional(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 3)
	if err != nil {
		return nil, err
	}
	if err := c.VerifyType(ts[0], types.Boolean); err != nil {
		return nil, err
	}
	resultType := ts[1]
	if resultType == nil {
		return nil, Errorf("Could not determine type of then expression for conditional.")
	}
	if err := c.VerifyType(ts[2], resultType); err != nil {
		return nil, err
	}
	return resultType, nil
}

// verifyCase checks each case item's when against the comparand (boolean
// when there is none) and each then against the first item's then.
func verifyCase(c *Context, n *ast.ASTNode) (types.DataType, error) {
	var comparisonType types.DataType = types.Boolean
	if comparand, ok := n.ASTChild("comparand"); ok {
		comparisonType = c.Verify(comparand)
	}

	var resultType types.DataType
	for _, item := range n.ChildrenNamed("caseItem") {
		parts := item.Base().ASTChildren()
		if len(parts) < 2 {
			return nil, Errorf("A case item must have a when and a then expression.")
		}
		when, then := parts[0], parts[1]
		if err := c.VerifyType(c.Verify(when), comparisonType); err != nil {
			return nil, err
		}
		thenType := c.Verify(then)
		if resultType == nil {
			resultType = thenType
			if resultType == nil {
				return nil, Errorf("Could not determine result type for case expression based on then element of first case item.")
			}
			continue
		}
		if err := c.VerifyType(thenType, resultType); err != nil {
			return nil, err
		}
	}

	if elseNode, ok := n.ASTChild("else"); ok {
		if err := c.VerifyType(c.Verify(elseNode), resultType); err != nil {
			return nil, err
		}
	}
	return resultType, nil
}

// =============================================================================
// Nulls and type tests
// =============================================================================

func verifyNull(c *Context, n *ast.ASTNode) (types.DataType, error) {
	return c.ResolveType(n.AttrOr("valueType", types.Any.Name()))
}

func verifyIsNull(c *Context, n *ast.ASTNode) (types.DataType, error) {
	if _, err := operands(c, n, 1); err != nil {
		return nil, err
	}
	return types.Boolean, nil
}

func verifyIsTrueOrFalse(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 1)
	if err != nil {
		return nil, err
	}
	if err := c.VerifyType(ts[0], types.Boolean); err != nil {
		return nil, err
	}
	return types.Boolean, nil
}

func verifyIfNull(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 2)
	if err != nil {
		return nil, err
	}
	if err := c.VerifyType(ts[1], ts[0]); err != nil {
		return nil, err
	}
	return ts[0], nil
}

func verifyCoalesce(c *Context, n *ast.ASTNode) (types.DataType, error) {
	var operandType types.DataType
	for _, t := range c.VerifyChildren(n) {
		if operandType == nil {
			operandType = t
			continue
		}
		if err := c.VerifyType(t, operandType); err != nil {
			return nil, err
		}
	}
	return operandType, nil
}

// typeTestVerifier resolves the type named by attr. The result is
// resultType, or the resolved type when resultType is nil.
func typeTestVerifier(attr string, resultType types.DataType) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		c.VerifyChildren(n)
		name, _ := n.Attr(attr)
		target, err := c.ResolveType(name)
		if err != nil {
			return nil, err
		}
		if resultType != nil {
			return resultType, nil
		}
		return target, nil
	}
}

func verifyBoundaryValue(c *Context, n *ast.ASTNode) (types.DataType, error) {
	c.VerifyChildren(n)
	valueType, _ := n.Attr("valueType")
	return c.ResolveType(valueType)
}

// =============================================================================
// Comparison
// =============================================================================

// equalVerifier resolves the comparison through the operator registry when
// either operand is scalar. Otherwise the operand types must be equal;
// subtypes and equivalent types are not accepted.
func equalVerifier(name string) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		ts, err := operands(c, n, 2)
		if err != nil {
			return nil, err
		}
		left, right := ts[0], ts[1]
		if isScalar(left) || isScalar(right) {
			op, err := c.ResolveCall(name, operator.Signature{left, right})
			if err != nil {
				return nil, err
			}
			return op.ResultType, nil
		}
		if types.Equal(left, right) {
			return types.Boolean, nil
		}
		return nil, Errorf("Cannot resolve operator %s for operands of type %s and %s",
			name, nameOf(left), nameOf(right))
	}
}

func isScalar(t types.DataType) bool {
	return t != nil && types.IsScalar(t)
}

func nameOf(t types.DataType) string {
	if t == nil {
		return "<unknown>"
	}
	return t.Name()
}

// =============================================================================
// Strings
// =============================================================================

// verifyLength measures strings, or intervals whose point type supports
// subtraction.
func verifyLength(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 1)
	if err != nil {
		return nil, err
	}
	if interval, ok := ts[0].(*types.IntervalType); ok {
		op, err := c.ResolveCall("Subtract", operator.Signature{interval.PointType, interval.PointType})
		if err != nil {
			return nil, err
		}
		return op.ResultType, nil
	}
	if err := c.VerifyType(ts[0], types.String); err != nil {
		return nil, err
	}
	return types.Integer, nil
}

// =============================================================================
// Fallback
// =============================================================================

// withOperatorFallback returns the result of resolving the node as an
// operator call when that succeeds, and err otherwise.
func withOperatorFallback(c *Context, n *ast.ASTNode, ts []types.DataType, err error) (types.DataType, error) {
	for _, t := range ts {
		if t == nil {
			return nil, err
		}
	}
	if op, opErr := c.v.operators.ResolveCall(n.Kind(), operator.Signature(ts)); opErr == nil {
		return op.ResultType, nil
	}
	return nil, err
}
