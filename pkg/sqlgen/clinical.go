package sqlgen

import (
	"fmt"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

const (
	requestAlias  = "T"
	valueSetAlias = "VS"
)

// translateRequest reads the table of the requested type, mapped through
// the model translator when one is registered. Code filters test value set
// membership of the code property; date filters bound the date property.
//
// As a query source without filters the table is used directly.
func translateRequest(c *translate.Context, n *ast.ASTNode) (any, error) {
	s, err := stateOf(c)
	if err != nil {
		return nil, err
	}

	requestType := c.ResultType(n)
	if element, ok := types.ElementType(requestType); ok {
		requestType = element
	}
	objectType, ok := requestType.(*types.ObjectType)
	if !ok {
		return nil, fmt.Errorf("sqlgen: unable to determine request type from source type %v", c.ResultType(n))
	}

	table := objectType.Name()
	if c.HasModelTranslator(table) {
		mapped, err := c.TransformModel(objectType)
		if err != nil {
			return nil, err
		}
		table = mapped.Name()
	}

	var conditions []sqlast.Expr
	if codes, ok := n.ASTChild("codes"); ok {
		cond, err := codeCondition(c, n, objectType, codes)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if dateRange, ok := n.ASTChild("dateRange"); ok {
		cond, err := dateCondition(c, n, objectType, dateRange)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	if s.inQuerySource() && len(conditions) == 0 {
		return &sqlast.TableName{Name: table}, nil
	}
	return &sqlast.SelectStmt{
		From:  &sqlast.FromClause{Source: &sqlast.TableName{Name: table, Alias: requestAlias}},
		Where: sqlast.And(conditions...),
	}, nil
}

func codeCondition(c *translate.Context, n *ast.ASTNode, requestType *types.ObjectType, codes *ast.ASTNode) (sqlast.Expr, error) {
	codeProperty, ok := n.Attr("codeProperty")
	if !ok || codeProperty == "" {
		return nil, unsupported("Code filters require a code property.")
	}
	code, err := propertyPath(c, requestType, n, codeProperty, requestAlias)
	if err != nil {
		return nil, err
	}
	translated, err := c.Translate(codes)
	if err != nil {
		return nil, err
	}
	return valueSetMembership(code, translated)
}

func dateCondition(c *translate.Context, n *ast.ASTNode, requestType *types.ObjectType, dateRange *ast.ASTNode) (sqlast.Expr, error) {
	dateProperty, ok := n.Attr("dateProperty")
	if !ok || dateProperty == "" {
		return nil, unsupported("Date range filters require a date property.")
	}
	date, err := propertyPath(c, requestType, n, dateProperty, requestAlias)
	if err != nil {
		return nil, err
	}
	translated, err := c.Translate(dateRange)
	if err != nil {
		return nil, err
	}
	iv, ok := translated.(*interval)
	if !ok {
		return nil, unsupported("Date range must be an interval selector.")
	}
	return intervalCondition(date, iv)
}

// =============================================================================
// Value sets
// =============================================================================

// translateValueSetRef selects the codes of a value set:
//
//	SELECT * FROM ValueSet VS WHERE VS.ValueSetName = '<library>.<name>'
func translateValueSetRef(c *translate.Context, n *ast.ASTNode) (any, error) {
	s, err := stateOf(c)
	if err != nil {
		return nil, err
	}
	name, _ := n.Attr("name")
	library := n.AttrOr("libraryName", s.Scope)
	return &sqlast.SelectStmt{
		From: &sqlast.FromClause{Source: &sqlast.TableName{Name: ValueSetTable, Alias: valueSetAlias}},
		Where: sqlast.Binary(
			&sqlast.ColumnRef{Table: valueSetAlias, Column: "ValueSetName"},
			sqlast.OpEq,
			sqlast.String(ValueSetName(library, name)),
		),
	}, nil
}

// ValueSetName is the key of a value set's rows in the ValueSet table.
func ValueSetName(scope, name string) string {
	return scope + "." + name
}

func translateInValueSet(c *translate.Context, n *ast.ASTNode) (any, error) {
	operands, err := operandNodes(n, 2)
	if err != nil {
		return nil, err
	}
	code, err := translateValue(c, operands[0])
	if err != nil {
		return nil, err
	}
	valueSet, err := c.Translate(operands[1])
	if err != nil {
		return nil, err
	}
	return valueSetMembership(code, valueSet)
}

// valueSetMembership narrows a value set selection to code:
//
//	EXISTS (SELECT * FROM ValueSet VS WHERE VS.ValueSetName = '...' AND <code> = VS.Code)
func valueSetMembership(code sqlast.Expr, valueSet any) (sqlast.Expr, error) {
	sel, ok := valueSet.(*sqlast.SelectStmt)
	if !ok || !readsValueSet(sel) {
		return nil, unsupported("Value set membership requires a value set reference.")
	}
	sel.Where = sqlast.And(
		sel.Where,
		sqlast.Binary(code, sqlast.OpEq, &sqlast.ColumnRef{Table: valueSetAlias, Column: "Code"}),
	)
	return &sqlast.ExistsExpr{Select: sel}, nil
}

func readsValueSet(sel *sqlast.SelectStmt) bool {
	if sel.From == nil {
		return false
	}
	t, ok := sel.From.Source.(*sqlast.TableName)
	return ok && t.Name == ValueSetTable && t.Alias == valueSetAlias
}
