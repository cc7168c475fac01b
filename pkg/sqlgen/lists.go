package sqlgen

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// firstOrLast selects one row. Without an explicit ordering the rows are
// ordered by every property of the element type so the choice is
// deterministic; Last orders descending.
func firstOrLast(last bool) translate.NodeTranslator {
	return func(c *translate.Context, n *ast.ASTNode) (any, error) {
		operands, err := operandNodes(n, 1)
		if err != nil {
			return nil, err
		}
		sel, err := translateRelation(c, operands[0])
		if err != nil {
			return nil, err
		}
		sel.Top = 1

		if len(sel.OrderBy) > 0 {
			return sel, nil
		}
		if orderBy, ok := n.Attr("orderBy"); ok && orderBy != "" {
			col, err := resolvePath(orderBy, "")
			if err != nil {
				return nil, err
			}
			sel.OrderBy = []sqlast.OrderByItem{{Expr: col, Desc: last}}
			return sel, nil
		}
		for _, name := range orderColumns(c.ResultType(n)) {
			sel.OrderBy = append(sel.OrderBy, sqlast.OrderByItem{
				Expr: &sqlast.ColumnRef{Column: name},
				Desc: last,
			})
		}
		return sel, nil
	}
}

func orderColumns(element types.DataType) []string {
	o, ok := element.(*types.ObjectType)
	if !ok {
		return []string{ValueColumn}
	}
	var names []string
	for _, p := range types.AllProperties(o) {
		names = append(names, p.Name)
	}
	return names
}

func translateSingletonFrom(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 1)
	if err != nil {
		return nil, err
	}
	sel, err := translateRelation(c, operands[0])
	if err != nil {
		return nil, err
	}
	sel.Top = 1
	return sel, nil
}

// emptiness tests a list for rows.
func emptiness(empty bool) translate.NodeTranslator {
	return func(c *translate.Context, n *ast.ASTNode) (any, error) {
		operands, err := operandNodes(n, 1)
		if err != nil {
			return nil, err
		}
		sel, err := translateRelation(c, operands[0])
		if err != nil {
			return nil, err
		}
		return &sqlast.ExistsExpr{Not: empty, Select: sel}, nil
	}
}

// translateIn tests membership of a scalar in a list or an interval. List
// selectors become IN lists; other lists become an EXISTS over their value
// column.
func translateIn(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	elementNode, collectionNode := operands[0], operands[1]
	if _, ok := c.ResultType(elementNode).(*types.ListType); ok {
		return nil, unsupported("In translation with an element of type list is not supported because there is no equivalent SQL representation.")
	}

	element, err := translateValue(c, elementNode)
	if err != nil {
		return nil, err
	}
	collection, err := c.Translate(collectionNode)
	if err != nil {
		return nil, err
	}

	switch coll := collection.(type) {
	case *interval:
		return intervalCondition(element, coll)
	case *sqlast.ListExpr:
		return &sqlast.InExpr{Expr: element, Values: coll.Items}, nil
	}

	if _, ok := c.ResultType(elementNode).(*types.ObjectType); ok {
		return nil, unsupported("In translation with an element of a structured type is not supported.")
	}
	source, err := tableRef(collection, "T")
	if err != nil {
		return nil, err
	}
	return &sqlast.ExistsExpr{Select: &sqlast.SelectStmt{
		From:  &sqlast.FromClause{Source: source},
		Where: sqlast.Binary(&sqlast.ColumnRef{Table: "T", Column: ValueColumn}, sqlast.OpEq, element),
	}}, nil
}

// intervalCondition tests e against the bounds of a closed interval. A
// missing bound is unbounded.
func intervalCondition(e sqlast.Expr, iv *interval) (sqlast.Expr, error) {
	if iv.lowOpen || iv.highOpen {
		return nil, unsupported("Open intervals are not supported.")
	}
	switch {
	case iv.low != nil && iv.high != nil:
		return &sqlast.BetweenExpr{Expr: e, Low: iv.low, High: iv.high}, nil
	case iv.low != nil:
		return sqlast.Binary(e, sqlast.OpGe, iv.low), nil
	case iv.high != nil:
		return sqlast.Binary(e, sqlast.OpLe, iv.high), nil
	}
	return nil, unsupported("Interval without bounds is not supported.")
}
