package sqlgen

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

// =============================================================================
// Properties
// =============================================================================

// translateProperty resolves the path against the alias in scope, or reads
// it from the source operand:
//
//	SELECT T.<path> AS value FROM (<source>) T
func translateProperty(c *translate.Context, n *ast.ASTNode) (any, error) {
	path, _ := n.Attr("path")

	source, hasSource := n.FirstASTChild()
	if !hasSource {
		qualifier := n.AttrOr("scope", verify.Current)
		if qualifier == verify.Current {
			qualifier = ""
		}
		return propertyPath(c, c.SourceType(n), n, path, qualifier)
	}

	translated, err := c.Translate(source)
	if err != nil {
		return nil, err
	}
	if alias, ok := translated.(aliasRef); ok {
		return propertyPath(c, c.SourceType(n), n, path, alias.name)
	}

	from, err := tableRef(translated, "T")
	if err != nil {
		return nil, err
	}
	col, err := propertyPath(c, c.SourceType(n), n, path, "T")
	if err != nil {
		return nil, err
	}
	return &sqlast.SelectStmt{
		Columns: []sqlast.SelectItem{{Expr: col, Alias: ValueColumn}},
		From:    &sqlast.FromClause{Source: from},
	}, nil
}

// propertyPath resolves path on qualifier. When a model translator is
// registered for the source type it maps the path first: it may return the
// target path as a string, or a complete expression.
func propertyPath(c *translate.Context, sourceType types.DataType, n *ast.ASTNode, path, qualifier string) (sqlast.Expr, error) {
	if element, ok := types.ElementType(sourceType); ok {
		sourceType = element
	}
	if o, ok := sourceType.(*types.ObjectType); ok && c.HasModelTranslator(o.Name()) {
		mapped, err := c.TransformModelPath(o, n, path)
		if err != nil {
			return nil, err
		}
		switch m := mapped.(type) {
		case string:
			path = m
		case sqlast.Expr:
			return m, nil
		default:
			return nil, fmt.Errorf("sqlgen: model translator for %s returned %T", o.Name(), mapped)
		}
	}
	return resolvePath(path, qualifier)
}

// =============================================================================
// Queries
// =============================================================================

// translateQuery renders a single-source query. Relationships become
// correlated EXISTS (with) and NOT EXISTS (without) tests, ANDed with the
// where condition.
func translateQuery(c *translate.Context, n *ast.ASTNode) (any, error) {
	s, err := stateOf(c)
	if err != nil {
		return nil, err
	}

	sources, err := verify.QuerySources(n)
	if err != nil {
		return nil, err
	}
	switch {
	case len(sources) == 0:
		return nil, fmt.Errorf("sqlgen: query has no source")
	case len(sources) > 1:
		return nil, unsupported("Multi-source query translation is not supported.")
	}
	if len(n.ChildrenNamed("define")) > 0 || len(n.ChildrenNamed("let")) > 0 {
		return nil, unsupported("Define clause translation is not supported.")
	}
	if _, ok := n.Child("sort"); ok {
		return nil, unsupported("Sort clause translation is not supported.")
	}

	from, err := querySource(c, s, sources[0])
	if err != nil {
		return nil, err
	}
	sel := &sqlast.SelectStmt{From: &sqlast.FromClause{Source: from}}

	relationships, err := verify.QueryRelationships(n)
	if err != nil {
		return nil, err
	}
	var conditions []sqlast.Expr
	for _, rel := range relationships {
		cond, err := relationshipCondition(c, s, rel)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if where, ok := n.ASTChild("where"); ok {
		cond, err := translatePredicate(c, where)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	sel.Where = sqlast.And(conditions...)

	if err := queryReturn(c, n, sources[0].Alias, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// querySource translates a query source in query-source position, where a
// request may be a bare table.
func querySource(c *translate.Context, s *State, src verify.QuerySource) (sqlast.TableRef, error) {
	s.enterQuerySource()
	defer s.leaveQuerySource()

	translated, err := c.Translate(src.Expression)
	if err != nil {
		return nil, err
	}
	return tableRef(translated, src.Alias)
}

func relationshipCondition(c *translate.Context, s *State, rel verify.Relationship) (sqlast.Expr, error) {
	related, err := querySource(c, s, rel.QuerySource)
	if err != nil {
		return nil, err
	}
	suchThat, err := translatePredicate(c, rel.SuchThat)
	if err != nil {
		return nil, err
	}
	return &sqlast.ExistsExpr{
		Not: rel.Without,
		Select: &sqlast.SelectStmt{
			From:  &sqlast.FromClause{Source: related},
			Where: suchThat,
		},
	}, nil
}

// queryReturn sets the columns of sel from the return clause: one column per
// element of a tuple, or a single value column. Returning the source alias
// keeps every column. Returned rows are distinct unless the clause says
// otherwise.
func queryReturn(c *translate.Context, n *ast.ASTNode, alias string, sel *sqlast.SelectStmt) error {
	ret, ok := verify.QueryReturn(n)
	if !ok {
		return nil
	}
	el, _ := n.Child("return")
	distinct, err := strconv.ParseBool(el.Base().AttrOr("distinct", "true"))
	if err != nil {
		return fmt.Errorf("sqlgen: invalid distinct attribute: %w", err)
	}
	sel.Distinct = distinct

	translated, err := c.Translate(ret)
	if err != nil {
		return err
	}
	switch t := translated.(type) {
	case aliasRef:
		if t.name != alias {
			return unsupported("Query return of alias %s is not supported.", t.name)
		}
		return nil
	case *sqlast.SelectStmt:
		if t.From == nil && len(t.Columns) > 0 {
			sel.Columns = t.Columns
			return nil
		}
	}
	v, err := value(translated)
	if err != nil {
		return err
	}
	sel.Columns = []sqlast.SelectItem{{Expr: v, Alias: ValueColumn}}
	return nil
}

func translateAliasRef(_ *translate.Context, n *ast.ASTNode) (any, error) {
	name, _ := n.Attr("name")
	return aliasRef{name: name}, nil
}

func translateQueryDefineRef(_ *translate.Context, n *ast.ASTNode) (any, error) {
	name, _ := n.Attr("name")
	return nil, unsupported("Query define reference %s is not supported.", name)
}
