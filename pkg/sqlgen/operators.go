package sqlgen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// =============================================================================
// Logical
// =============================================================================

func translateAnd(c *translate.Context, n *ast.ASTNode) (any, error) {
	preds, err := predicates(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	return sqlast.And(preds...), nil
}

func translateOr(c *translate.Context, n *ast.ASTNode) (any, error) {
	preds, err := predicates(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	return or(preds...), nil
}

func translateNot(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 1)
	if err != nil {
		return nil, err
	}
	p, err := translatePredicate(c, operands[0])
	if err != nil {
		return nil, err
	}
	return sqlast.Not(p), nil
}

// translateXor renders (a OR b) AND NOT (a AND b).
func translateXor(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	preds, err := predicates(c, operands)
	if err != nil {
		return nil, err
	}
	a, b := preds[0], preds[1]
	return sqlast.And(or(a, b), sqlast.Not(sqlast.And(a, b))), nil
}

func predicates(c *translate.Context, nodes []*ast.ASTNode) ([]sqlast.Expr, error) {
	out := make([]sqlast.Expr, 0, len(nodes))
	for _, n := range nodes {
		p, err := translatePredicate(c, n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// =============================================================================
// Conditionals and nulls
// =============================================================================

func translateConditional(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 3)
	if err != nil {
		return nil, err
	}
	cond, err := translatePredicate(c, operands[0])
	if err != nil {
		return nil, err
	}
	branches, err := values(c, operands[1:])
	if err != nil {
		return nil, err
	}
	return &sqlast.CaseExpr{
		Whens: []sqlast.WhenClause{{Condition: cond, Result: branches[0]}},
		Else:  branches[1],
	}, nil
}

func translateCase(c *translate.Context, n *ast.ASTNode) (any, error) {
	result := &sqlast.CaseExpr{}
	comparand, hasComparand := n.ASTChild("comparand")
	if hasComparand {
		operand, err := translateValue(c, comparand)
		if err != nil {
			return nil, err
		}
		result.Operand = operand
	}

	for _, item := range n.ChildrenNamed("caseItem") {
		parts := item.Base().ASTChildren()
		if len(parts) < 2 {
			return nil, fmt.Errorf("sqlgen: case item without when and then")
		}
		var when sqlast.Expr
		var err error
		if hasComparand {
			when, err = translateValue(c, parts[0])
		} else {
			when, err = translatePredicate(c, parts[0])
		}
		if err != nil {
			return nil, err
		}
		then, err := translateValue(c, parts[1])
		if err != nil {
			return nil, err
		}
		result.Whens = append(result.Whens, sqlast.WhenClause{Condition: when, Result: then})
	}

	if elseNode, ok := n.ASTChild("else"); ok {
		e, err := translateValue(c, elseNode)
		if err != nil {
			return nil, err
		}
		result.Else = e
	}
	return result, nil
}

func translateNull(*translate.Context, *ast.ASTNode) (any, error) {
	return sqlast.Null(), nil
}

func translateIsNull(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 1)
	if err != nil {
		return nil, err
	}
	v, err := translateValue(c, operands[0])
	if err != nil {
		return nil, err
	}
	return &sqlast.IsNullExpr{Expr: v}, nil
}

func translateCoalesce(c *translate.Context, n *ast.ASTNode) (any, error) {
	args, err := values(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	return sqlast.Func("COALESCE", args...), nil
}

// translatePassThrough translates the single operand of a node that has no
// relational effect, such as a type cast.
func translatePassThrough(c *translate.Context, n *ast.ASTNode) (any, error) {
	operand, ok := n.FirstASTChild()
	if !ok {
		return nil, fmt.Errorf("sqlgen: %s has no operand", n.Kind())
	}
	return c.Translate(operand)
}

// =============================================================================
// Comparison and arithmetic
// =============================================================================

// binary renders a binary operator over two value operands.
func binary(op sqlast.Op) translate.NodeTranslator {
	return func(c *translate.Context, n *ast.ASTNode) (any, error) {
		operands, err := operandNodes(n, 2)
		if err != nil {
			return nil, err
		}
		args, err := values(c, operands)
		if err != nil {
			return nil, err
		}
		return sqlast.Binary(args[0], op, args[1]), nil
	}
}

// function renders a portable function over value operands.
func function(name string) translate.NodeTranslator {
	return func(c *translate.Context, n *ast.ASTNode) (any, error) {
		args, err := values(c, n.ASTChildren())
		if err != nil {
			return nil, err
		}
		return sqlast.Func(name, args...), nil
	}
}

// translateAdd adds numbers, concatenates strings and shifts a date by a
// quantity of days.
func translateAdd(c *translate.Context, n *ast.ASTNode) (any, error) {
	return additive(c, n, sqlast.OpAdd)
}

func translateSubtract(c *translate.Context, n *ast.ASTNode) (any, error) {
	return additive(c, n, sqlast.OpSub)
}

func additive(c *translate.Context, n *ast.ASTNode, op sqlast.Op) (any, error) {
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	args, err := values(c, operands)
	if err != nil {
		return nil, err
	}

	resultType := c.ResultType(n)
	switch {
	case types.Equal(resultType, types.String) && op == sqlast.OpAdd:
		return sqlast.Binary(args[0], sqlast.OpConcat, args[1]), nil
	case types.Equal(resultType, types.DateTime):
		amount := args[1]
		if op == sqlast.OpSub {
			amount = &sqlast.UnaryExpr{Op: sqlast.OpNeg, Expr: amount}
		}
		return sqlast.Func(dialect.FnDateAdd, args[0], amount, &sqlast.Unit{Name: "day"}), nil
	}
	return sqlast.Binary(args[0], op, args[1]), nil
}

// translateDivide always divides as decimals.
func translateDivide(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	args, err := values(c, operands)
	if err != nil {
		return nil, err
	}
	left := args[0]
	if types.Equal(c.ResultType(operands[0]), types.Integer) {
		left = sqlast.Binary(left, sqlast.OpMul, sqlast.Number("1.0"))
	}
	return sqlast.Binary(left, sqlast.OpDiv, args[1]), nil
}

func translateNegate(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 1)
	if err != nil {
		return nil, err
	}
	v, err := translateValue(c, operands[0])
	if err != nil {
		return nil, err
	}
	return &sqlast.UnaryExpr{Op: sqlast.OpNeg, Expr: v}, nil
}

// translateConcat concatenates any number of strings.
func translateConcat(c *translate.Context, n *ast.ASTNode) (any, error) {
	args, err := values(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return sqlast.String(""), nil
	}
	result := args[0]
	for _, arg := range args[1:] {
		result = sqlast.Binary(result, sqlast.OpConcat, arg)
	}
	return result, nil
}

// translateLength measures strings only.
func translateLength(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 1)
	if err != nil {
		return nil, err
	}
	if _, ok := c.ResultType(operands[0]).(*types.ListType); ok {
		return nil, unsupported("Length of a list is not supported.")
	}
	return function(dialect.FnLength)(c, n)
}

// =============================================================================
// Date and time
// =============================================================================

// translateDateAdd requires the granularity to be a literal; it becomes the
// unit of the dialect's date arithmetic.
func translateDateAdd(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 3)
	if err != nil {
		return nil, err
	}
	granularity := operands[1]
	if granularity.Kind() != "Literal" {
		return nil, unsupported("Date granularity argument to a DateAdd expression must be a literal because SQL does not support the date part specifier as a parameter.")
	}
	unit, _ := granularity.Attr("value")

	date, err := translateValue(c, operands[0])
	if err != nil {
		return nil, err
	}
	amount, err := translateValue(c, operands[2])
	if err != nil {
		return nil, err
	}
	return sqlast.Func(dialect.FnDateAdd, date, amount, &sqlast.Unit{Name: strings.ToLower(unit)}), nil
}

func translateDurationBetween(c *translate.Context, n *ast.ASTNode) (any, error) {
	precision, ok := n.Attr("precision")
	if !ok || precision == "" {
		return nil, fmt.Errorf("sqlgen: DurationBetween requires a precision")
	}
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	args, err := values(c, operands)
	if err != nil {
		return nil, err
	}
	return sqlast.Func(dialect.FnDateDiff, &sqlast.Unit{Name: strings.ToLower(precision)}, args[0], args[1]), nil
}

// translateCalculateAge computes the age at the current date, or at the
// second operand, in whole units of precision (years by default).
func translateCalculateAge(c *translate.Context, n *ast.ASTNode) (any, error) {
	args, err := values(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	var asOf sqlast.Expr = sqlast.Func(dialect.FnToday)
	switch len(args) {
	case 1:
	case 2:
		asOf = args[1]
	default:
		return nil, fmt.Errorf("sqlgen: %s expects 1 or 2 operands, found %d", n.Kind(), len(args))
	}
	unit := &sqlast.Unit{Name: strings.ToLower(n.AttrOr("precision", "year"))}
	return sqlast.Func(dialect.FnDateDiff, unit, args[0], asOf), nil
}
