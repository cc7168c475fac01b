package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

// aliasRef is the translation of a reference to a query alias. It is only
// meaningful as the source of a property or as a query return.
type aliasRef struct {
	name string
}

// interval is the translation of an interval selector. Either bound may be
// nil.
type interval struct {
	low, high         sqlast.Expr
	lowOpen, highOpen bool
}

// =============================================================================
// Boolean promotion
// =============================================================================

// isPredicate reports whether e is a truth-valued SQL expression rather than
// a value.
func isPredicate(e sqlast.Expr) bool {
	switch x := e.(type) {
	case *sqlast.BinaryExpr:
		switch x.Op {
		case sqlast.OpOr, sqlast.OpAnd, sqlast.OpEq, sqlast.OpNe,
			sqlast.OpLt, sqlast.OpLe, sqlast.OpGt, sqlast.OpGe:
			return true
		}
	case *sqlast.UnaryExpr:
		return x.Op == sqlast.OpNot
	case *sqlast.ExistsExpr, *sqlast.IsNullExpr, *sqlast.BetweenExpr, *sqlast.InExpr:
		return true
	}
	return false
}

func isNumber(e sqlast.Expr, value string) bool {
	lit, ok := e.(*sqlast.Literal)
	return ok && lit.Type == sqlast.LiteralNumber && lit.Value == value
}

// promote turns a predicate into a 1/0 value. Other expressions are
// returned unchanged.
func promote(e sqlast.Expr) sqlast.Expr {
	if !isPredicate(e) {
		return e
	}
	// Boolean literals.
	if b, ok := e.(*sqlast.BinaryExpr); ok && b.Op == sqlast.OpEq && isNumber(b.Left, "1") {
		if isNumber(b.Right, "1") {
			return sqlast.Int(1)
		}
		if isNumber(b.Right, "0") {
			return sqlast.Int(0)
		}
	}
	return &sqlast.CaseExpr{
		Whens: []sqlast.WhenClause{{Condition: e, Result: sqlast.Int(1)}},
		Else:  sqlast.Int(0),
	}
}

// demote turns a 1/0 value into a predicate. Predicates are returned
// unchanged.
func demote(e sqlast.Expr) sqlast.Expr {
	if isPredicate(e) {
		return e
	}
	if c, ok := e.(*sqlast.CaseExpr); ok && c.Operand == nil && len(c.Whens) == 1 &&
		isNumber(c.Whens[0].Result, "1") && isNumber(c.Else, "0") {
		return c.Whens[0].Condition
	}
	return sqlast.Binary(e, sqlast.OpEq, sqlast.Int(1))
}

// =============================================================================
// Shape conversions
// =============================================================================

// expression converts a translation result into a scalar expression.
// Relations become scalar subqueries.
func expression(v any) (sqlast.Expr, error) {
	switch t := v.(type) {
	case sqlast.Expr:
		return t, nil
	case *sqlast.SelectStmt:
		return &sqlast.SubqueryExpr{Select: t}, nil
	case *sqlast.TableName:
		return &sqlast.SubqueryExpr{Select: selectAll(t)}, nil
	case aliasRef:
		return nil, unsupported("Reference to alias %s cannot be used as a value.", t.name)
	case *interval:
		return nil, unsupported("Interval values have no relational representation.")
	default:
		return nil, fmt.Errorf("sqlgen: unexpected translation result %T", v)
	}
}

// value converts a translation result into a value expression, promoting
// predicates.
func value(v any) (sqlast.Expr, error) {
	e, err := expression(v)
	if err != nil {
		return nil, err
	}
	return promote(e), nil
}

// predicate converts a translation result into a predicate, demoting
// values.
func predicate(v any) (sqlast.Expr, error) {
	e, err := expression(v)
	if err != nil {
		return nil, err
	}
	return demote(e), nil
}

func selectAll(t *sqlast.TableName) *sqlast.SelectStmt {
	return &sqlast.SelectStmt{From: &sqlast.FromClause{Source: t}}
}

// relation converts a translation result into a select statement. Scalars
// become a single "value" column.
func relation(v any) (*sqlast.SelectStmt, error) {
	switch t := v.(type) {
	case *sqlast.SelectStmt:
		return t, nil
	case *sqlast.TableName:
		return selectAll(t), nil
	case *sqlast.SubqueryExpr:
		return t.Select, nil
	}
	e, err := value(v)
	if err != nil {
		return nil, err
	}
	return &sqlast.SelectStmt{Columns: []sqlast.SelectItem{{Expr: e, Alias: ValueColumn}}}, nil
}

// tableRef converts a translation result into an aliased FROM source.
func tableRef(v any, alias string) (sqlast.TableRef, error) {
	if t, ok := v.(*sqlast.TableName); ok {
		ref := *t
		ref.Alias = alias
		return &ref, nil
	}
	sel, err := relation(v)
	if err != nil {
		return nil, err
	}
	return &sqlast.DerivedTable{Select: sel, Alias: alias}, nil
}

func or(preds ...sqlast.Expr) sqlast.Expr {
	var result sqlast.Expr
	for _, p := range preds {
		if result == nil {
			result = p
			continue
		}
		result = sqlast.Binary(result, sqlast.OpOr, p)
	}
	return result
}

// =============================================================================
// Paths
// =============================================================================

// resolvePath turns a property path into column and member accesses on
// qualifier. Indexers are either integer literals or paths themselves, e.g.
// "code.coding[1].code" or "entries[position]".
func resolvePath(path, qualifier string) (sqlast.Expr, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlgen: empty property path")
	}

	var result sqlast.Expr
	member := func(name string) {
		if result == nil {
			result = &sqlast.ColumnRef{Table: qualifier, Column: name}
			return
		}
		result = &sqlast.MemberExpr{Expr: result, Name: name}
	}

	for path != "" {
		i := strings.IndexAny(path, ".[")
		if i < 0 {
			member(path)
			break
		}
		if i > 0 {
			member(path[:i])
		}
		if path[i] == '.' {
			path = path[i+1:]
			continue
		}

		closing := matchingBracket(path, i)
		if closing < 0 {
			return nil, fmt.Errorf("sqlgen: could not determine matching bracket index in %q", path)
		}
		if result == nil {
			return nil, fmt.Errorf("sqlgen: indexer without a member in %q", path)
		}
		index, err := resolveIndex(path[i+1:closing], qualifier)
		if err != nil {
			return nil, err
		}
		result = &sqlast.IndexExpr{Expr: result, Index: index}
		path = strings.TrimPrefix(path[closing+1:], ".")
	}
	return result, nil
}

func resolveIndex(index, qualifier string) (sqlast.Expr, error) {
	if _, err := strconv.Atoi(index); err == nil {
		return sqlast.Number(index), nil
	}
	return resolvePath(index, qualifier)
}

func matchingBracket(path string, open int) int {
	depth := 0
	for i := open; i < len(path); i++ {
		switch path[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
