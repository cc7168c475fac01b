package verify

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

func isListOrInterval(t types.DataType) bool {
	switch t.(type) {
	case *types.ListType, *types.IntervalType:
		return true
	}
	return false
}

// =============================================================================
// Element access
// =============================================================================

func firstOrLastVerifier(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 1)
	if err != nil {
		return nil, err
	}
	list, ok := ts[0].(*types.ListType)
	if !ok {
		return nil, Errorf("Source must be a list value.")
	}
	if orderBy, ok := n.Attr("orderBy"); ok && orderBy != "" {
		if _, err := c.ResolveProperty(list.ElementType, orderBy); err != nil {
			return nil, err
		}
	}
	return list.ElementType, nil
}

func verifyIndexer(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 2)
	if err != nil {
		return nil, err
	}
	var resultType types.DataType
	if list, ok := ts[0].(*types.ListType); ok {
		resultType = list.ElementType
	} else {
		if err := c.VerifyType(ts[0], types.String); err != nil {
			return nil, err
		}
		resultType = types.String
	}
	if err := c.VerifyType(ts[1], types.Integer); err != nil {
		return nil, err
	}
	return resultType, nil
}

func verifyIndexOf(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 2)
	if err != nil {
		return nil, err
	}
	list, ok := ts[0].(*types.ListType)
	if !ok {
		return nil, Errorf("List type expected.")
	}
	if err := c.VerifyType(ts[1], list.ElementType); err != nil {
		return nil, err
	}
	return types.Integer, nil
}

// membershipVerifier checks that the element operand fits the list or
// interval operand. Membership operators registered by a model (such as
// codeable concepts in a code list) are accepted as well.
func membershipVerifier(source, element int) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		ts, err := operands(c, n, 2)
		if err != nil {
			return nil, err
		}
		var member types.DataType
		switch t := ts[source].(type) {
		case *types.ListType:
			member = t.ElementType
		case *types.IntervalType:
			member = t.PointType
		default:
			return withOperatorFallback(c, n, ts, Errorf("Expected an argument of type list or interval."))
		}
		if err := c.VerifyType(ts[element], member); err != nil {
			return withOperatorFallback(c, n, ts, err)
		}
		return types.Boolean, nil
	}
}

// =============================================================================
// Interval and list comparison
// =============================================================================

func verifyBinaryListOrInterval(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 2)
	if err != nil {
		return nil, err
	}
	if !isListOrInterval(ts[0]) {
		return nil, Errorf("List or interval type expected.")
	}
	if err := c.VerifyType(ts[1], ts[0]); err != nil {
		return nil, err
	}
	return types.Boolean, nil
}

// verifyBinaryInterval compares two intervals. Point comparisons (After on
// two date/times) resolve through the operator registry.
func verifyBinaryInterval(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 2)
	if err != nil {
		return nil, err
	}
	if _, ok := ts[0].(*types.IntervalType); !ok {
		return withOperatorFallback(c, n, ts, Errorf("Interval type expected."))
	}
	if err := c.VerifyType(ts[1], ts[0]); err != nil {
		return nil, err
	}
	return types.Boolean, nil
}

func verifyNaryListOrInterval(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts := c.VerifyChildren(n)
	if len(ts) == 0 {
		return nil, Errorf("Expected at least one child argument.")
	}
	operandType := ts[0]
	if !isListOrInterval(operandType) {
		return nil, Errorf("List or interval type expected.")
	}
	for _, t := range ts[1:] {
		if err := c.VerifyType(t, operandType); err != nil {
			return nil, err
		}
	}
	return operandType, nil
}

func verifyUnaryInterval(c *Context, n *ast.ASTNode) (types.DataType, error) {
	ts, err := operands(c, n, 1)
	if err != nil {
		return nil, err
	}
	interval, ok := ts[0].(*types.IntervalType)
	if !ok {
		return nil, Errorf("Interval type expected.")
	}
	return interval.PointType, nil
}

// unaryListVerifier requires a list operand; result derives the node's
// result type from it.
func unaryListVerifier(result func(*types.ListType) (types.DataType, error)) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		ts, err := operands(c, n, 1)
		if err != nil {
			return nil, err
		}
		list, ok := ts[0].(*types.ListType)
		if !ok {
			return nil, Errorf("Expected an expression of a list type.")
		}
		return result(list)
	}
}

func collapseType(list *types.ListType) (types.DataType, error) {
	if _, ok := list.ElementType.(*types.IntervalType); !ok {
		return nil, Errorf("Collapse operator must be invoked on a list of intervals.")
	}
	return list, nil
}

func expandType(list *types.ListType) (types.DataType, error) {
	inner, ok := list.ElementType.(*types.ListType)
	if !ok {
		return nil, Errorf("Expand operator must be invoked on a list of lists.")
	}
	return inner, nil
}

func booleanType(*types.ListType) (types.DataType, error) { return types.Boolean, nil }

func sameType(list *types.ListType) (types.DataType, error) { return list, nil }

// =============================================================================
// Scoped iteration
// =============================================================================

// scopedSource verifies the source operand of a filter or foreach and
// returns it with the condition operand.
func scopedSource(c *Context, n *ast.ASTNode, what string) (*types.ListType, *ast.ASTNode, error) {
	children := n.ASTChildren()
	if len(children) < 2 {
		return nil, nil, Errorf("Expected at least 2 operands for %s, found %d.", n.Kind(), len(children))
	}
	list, ok := c.Verify(children[0]).(*types.ListType)
	if !ok {
		return nil, nil, Errorf("%s expression source must be a list type expression.", what)
	}
	return list, children[1], nil
}

func verifyFilter(c *Context, n *ast.ASTNode) (types.DataType, error) {
	list, condition, err := scopedSource(c, n, "Filter")
	if err != nil {
		return nil, err
	}
	c.PushSymbol(Symbol{Name: n.AttrOr("scope", Current), Type: list.ElementType})
	defer c.PopSymbol()

	if err := c.VerifyType(c.Verify(condition), types.Boolean); err != nil {
		return nil, err
	}
	return list, nil
}

func verifyForEach(c *Context, n *ast.ASTNode) (types.DataType, error) {
	list, element, err := scopedSource(c, n, "ForEach")
	if err != nil {
		return nil, err
	}
	c.PushSymbol(Symbol{Name: n.AttrOr("scope", Current), Type: list.ElementType})
	defer c.PopSymbol()

	t := c.Verify(element)
	if t == nil {
		return nil, Errorf("Could not determine type of '%s' expression.", element.Name)
	}
	return types.NewListType(t), nil
}

func verifyCurrent(c *Context, n *ast.ASTNode) (types.DataType, error) {
	s, err := c.ResolveSymbol(n.AttrOr("scope", Current))
	if err != nil {
		return nil, err
	}
	return s.Type, nil
}

// verifyProperty resolves the path against the source operand, or against
// the symbol in scope when there is none. The source type is recorded for
// translation.
func verifyProperty(c *Context, n *ast.ASTNode) (types.DataType, error) {
	var sourceType types.DataType
	if source, ok := n.FirstASTChild(); ok {
		sourceType = c.Verify(source)
	} else {
		s, err := c.ResolveSymbol(n.AttrOr("scope", Current))
		if err != nil {
			return nil, err
		}
		sourceType = s.Type
	}
	path, _ := n.Attr("path")
	t, err := c.ResolveProperty(sourceType, path)
	if err != nil {
		return nil, err
	}
	c.v.annotations.SetSourceType(n, sourceType)
	return t, nil
}

// =============================================================================
// Aggregates
// =============================================================================

// aggregateVerifier requires a list source. An optional path attribute
// must name a property of the list's object element type.
func aggregateVerifier(result func(*Context, *types.ListType) (types.DataType, error)) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		ts, err := operands(c, n, 1)
		if err != nil {
			return nil, err
		}
		list, ok := ts[0].(*types.ListType)
		if !ok {
			return nil, Errorf("List type expected.")
		}
		if path, ok := n.Attr("path"); ok && path != "" {
			objectType, ok := list.ElementType.(*types.ObjectType)
			if !ok {
				return nil, Errorf("List of object type expected for aggregate expression with path reference.")
			}
			if _, err := c.ResolveProperty(objectType, path); err != nil {
				return nil, err
			}
		}
		return result(c, list)
	}
}

func countType(*Context, *types.ListType) (types.DataType, error) { return types.Integer, nil }

func elementOf(_ *Context, list *types.ListType) (types.DataType, error) {
	return list.ElementType, nil
}

func sumType(c *Context, list *types.ListType) (types.DataType, error) {
	op, err := c.ResolveCall("Add", operator.Signature{list.ElementType, list.ElementType})
	if err != nil {
		return nil, err
	}
	return op.ResultType, nil
}

// comparableType requires the element type to support the named
// comparison.
func comparableType(comparison string) func(*Context, *types.ListType) (types.DataType, error) {
	return func(c *Context, list *types.ListType) (types.DataType, error) {
		if _, err := c.ResolveCall(comparison, operator.Signature{list.ElementType, list.ElementType}); err != nil {
			return nil, err
		}
		return list.ElementType, nil
	}
}

// meanType requires Add and Divide on the element type and yields the
// result of Divide.
func meanType(c *Context, list *types.ListType) (types.DataType, error) {
	if _, err := sumType(c, list); err != nil {
		return nil, err
	}
	op, err := c.ResolveCall("Divide", operator.Signature{list.ElementType, list.ElementType})
	if err != nil {
		return nil, err
	}
	return op.ResultType, nil
}

func logicalType(c *Context, list *types.ListType) (types.DataType, error) {
	if err := c.VerifyType(list.ElementType, types.Boolean); err != nil {
		return nil, err
	}
	return types.Boolean, nil
}
