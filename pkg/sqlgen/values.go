package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// =============================================================================
// References
// =============================================================================

// translateDefinitionRef reads a translated expression or parameter
// definition from its view. Lists and objects are the view itself; other
// values come back as a scalar subquery, demoted when boolean.
func translateDefinitionRef(c *translate.Context, n *ast.ASTNode) (any, error) {
	s, err := stateOf(c)
	if err != nil {
		return nil, err
	}
	name, _ := n.Attr("name")
	view := &sqlast.TableName{Name: ObjectName(n.AttrOr("libraryName", s.Scope), name)}

	resultType := c.ResultType(n)
	if isRelational(resultType) {
		return view, nil
	}

	scalar := &sqlast.SubqueryExpr{Select: &sqlast.SelectStmt{
		Columns: []sqlast.SelectItem{{Expr: &sqlast.ColumnRef{Column: ValueColumn}}},
		From:    &sqlast.FromClause{Source: view},
	}}
	if types.Equal(resultType, types.Boolean) {
		return demote(scalar), nil
	}
	return scalar, nil
}

func isRelational(t types.DataType) bool {
	switch t.(type) {
	case *types.ListType, *types.ObjectType:
		return true
	}
	return false
}

// =============================================================================
// Literals
// =============================================================================

func translateLiteral(c *translate.Context, n *ast.ASTNode) (any, error) {
	v, _ := n.Attr("value")
	return literal(c.ResultType(n), v)
}

func typedLiteral(t types.DataType) translate.NodeTranslator {
	return func(_ *translate.Context, n *ast.ASTNode) (any, error) {
		v, _ := n.Attr("value")
		return literal(t, v)
	}
}

// literal renders a value of a built-in scalar type. Booleans are
// predicates.
func literal(t types.DataType, v string) (sqlast.Expr, error) {
	switch {
	case types.Equal(t, types.Boolean):
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: invalid boolean literal %q", v)
		}
		if b {
			return sqlast.Binary(sqlast.Int(1), sqlast.OpEq, sqlast.Int(1)), nil
		}
		return sqlast.Binary(sqlast.Int(1), sqlast.OpEq, sqlast.Int(0)), nil
	case types.Equal(t, types.Integer):
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("sqlgen: invalid integer literal %q", v)
		}
		return sqlast.Number(v), nil
	case types.Equal(t, types.Decimal):
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("sqlgen: invalid decimal literal %q", v)
		}
		return sqlast.Number(v), nil
	case types.Equal(t, types.String):
		return sqlast.String(v), nil
	case types.Equal(t, types.DateTime):
		return sqlast.Func(dialect.FnDateTime, sqlast.String(v)), nil
	}
	name := "<unknown>"
	if t != nil {
		name = t.Name()
	}
	return nil, unsupported("Unsupported literal type: %s.", name)
}

// dayFactors convert UCUM time units to days. The unity unit is left as is.
var dayFactors = map[string]float64{
	"1":  1,
	"a":  365.25,
	"mo": 30.4375,
	"wk": 7,
	"d":  1,
}

// translatePhysicalQuantity renders a quantity as a number normalized to
// days for time units.
func translatePhysicalQuantity(_ *translate.Context, n *ast.ASTNode) (any, error) {
	v, _ := n.Attr("value")
	unit := n.AttrOr("unit", "1")
	amount, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("sqlgen: invalid quantity value %q", v)
	}
	factor, ok := dayFactors[unit]
	if !ok {
		return nil, unsupported("Physical quantity unit translation for unit type of '%s' is not supported.", unit)
	}
	return sqlast.Number(strconv.FormatFloat(amount*factor, 'f', -1, 64)), nil
}

// =============================================================================
// Selectors
// =============================================================================

// translateTuple renders a structured value as a single-row select with one
// column per element.
func translateTuple(c *translate.Context, n *ast.ASTNode) (any, error) {
	sel := &sqlast.SelectStmt{}
	for _, e := range n.ChildrenNamed("element") {
		el := e.Base()
		name, _ := el.Attr("name")
		v, ok := el.ASTChild("value")
		if !ok {
			v, ok = el.FirstASTChild()
		}
		if !ok {
			return nil, fmt.Errorf("sqlgen: element %s has no value", name)
		}
		translated, err := c.Translate(v)
		if err != nil {
			return nil, err
		}
		col, err := value(translated)
		if err != nil {
			return nil, err
		}
		sel.Columns = append(sel.Columns, sqlast.SelectItem{Expr: col, Alias: name})
	}
	return sel, nil
}

func translateList(c *translate.Context, n *ast.ASTNode) (any, error) {
	items, err := values(c, n.ASTChildren())
	if err != nil {
		return nil, err
	}
	return &sqlast.ListExpr{Items: items}, nil
}

func translateInterval(c *translate.Context, n *ast.ASTNode) (any, error) {
	iv := &interval{
		lowOpen:  boolAttr(n, "beginOpen", false) || !boolAttr(n, "lowClosed", true),
		highOpen: boolAttr(n, "endOpen", false) || !boolAttr(n, "highClosed", true),
	}
	for _, child := range n.ASTChildren() {
		var bound *sqlast.Expr
		switch child.Name {
		case "begin", "low":
			bound = &iv.low
		case "end", "high":
			bound = &iv.high
		default:
			continue
		}
		translated, err := c.Translate(child)
		if err != nil {
			return nil, err
		}
		if *bound, err = value(translated); err != nil {
			return nil, err
		}
	}
	return iv, nil
}

func boolAttr(n *ast.ASTNode, name string, def bool) bool {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// =============================================================================
// Helpers
// =============================================================================

// values translates each node into a value expression.
func values(c *translate.Context, nodes []*ast.ASTNode) ([]sqlast.Expr, error) {
	out := make([]sqlast.Expr, 0, len(nodes))
	for _, n := range nodes {
		v, err := translateValue(c, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func translateValue(c *translate.Context, n *ast.ASTNode) (sqlast.Expr, error) {
	translated, err := c.Translate(n)
	if err != nil {
		return nil, err
	}
	return value(translated)
}

func translatePredicate(c *translate.Context, n *ast.ASTNode) (sqlast.Expr, error) {
	translated, err := c.Translate(n)
	if err != nil {
		return nil, err
	}
	return predicate(translated)
}

func translateRelation(c *translate.Context, n *ast.ASTNode) (*sqlast.SelectStmt, error) {
	translated, err := c.Translate(n)
	if err != nil {
		return nil, err
	}
	return relation(translated)
}

// operandNodes returns exactly want expression children of n.
func operandNodes(n *ast.ASTNode, want int) ([]*ast.ASTNode, error) {
	children := n.ASTChildren()
	if len(children) != want {
		return nil, fmt.Errorf("sqlgen: %s expects %d operands, found %d", n.Kind(), want, len(children))
	}
	return children, nil
}
