package verify

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// QuerySource is an aliased source of a query.
type QuerySource struct {
	Alias      string
	Expression *ast.ASTNode
}

// Relationship is a with or without clause of a query.
type Relationship struct {
	QuerySource
	SuchThat *ast.ASTNode
	Without  bool
}

// QuerySources returns the aliased sources of a query node.
func QuerySources(n *ast.ASTNode) ([]QuerySource, error) {
	var out []QuerySource
	for _, el := range n.ChildrenNamed("source") {
		src := el.Base()
		alias, _ := src.Attr("alias")
		expr, ok := src.ASTChild("expression")
		if !ok {
			expr, ok = src.FirstASTChild()
		}
		if !ok {
			return nil, Errorf("Could not determine source expression for alias '%s'.", alias)
		}
		out = append(out, QuerySource{Alias: alias, Expression: expr})
	}
	return out, nil
}

// QueryRelationships returns the with and without clauses of a query node.
func QueryRelationships(n *ast.ASTNode) ([]Relationship, error) {
	var out []Relationship
	for _, el := range n.Children {
		rel := el.Base()
		kind := rel.Kind()
		if kind != "With" && kind != "Without" {
			continue
		}
		alias, _ := rel.Attr("alias")
		children := rel.ASTChildren()
		expr, ok := rel.ASTChild("expression")
		if !ok && len(children) > 0 {
			expr, ok = children[0], true
		}
		if !ok {
			return nil, Errorf("Could not determine source expression for alias '%s'.", alias)
		}
		suchThat, ok := rel.ASTChild("suchThat")
		if !ok && len(children) > 1 {
			suchThat, ok = children[1], true
		}
		if !ok {
			return nil, Errorf("Relationship '%s' requires a such that condition.", alias)
		}
		out = append(out, Relationship{
			QuerySource: QuerySource{Alias: alias, Expression: expr},
			SuchThat:    suchThat,
			Without:     kind == "Without",
		})
	}
	return out, nil
}

// QueryReturn returns the return expression of a query node, if any.
func QueryReturn(n *ast.ASTNode) (*ast.ASTNode, bool) {
	el, ok := n.Child("return")
	if !ok {
		return nil, false
	}
	if r, ok := el.(*ast.ASTNode); ok {
		return r, true
	}
	return elementValue(el.Base())
}

// verifyQuery verifies a single-source query. The source alias is in scope
// for the relationships, the where condition and the return expression.
func verifyQuery(c *Context, n *ast.ASTNode) (types.DataType, error) {
	sources, err := QuerySources(n)
	if err != nil {
		return nil, err
	}
	switch {
	case len(sources) == 0:
		return nil, Errorf("Could not determine query source type.")
	case len(sources) > 1:
		return nil, Errorf("Multi-source query verification is not implemented.")
	}
	if len(n.ChildrenNamed("define")) > 0 || len(n.ChildrenNamed("let")) > 0 {
		return nil, Errorf("Query defines are not implemented.")
	}
	if _, ok := n.Child("sort"); ok {
		return nil, Errorf("Sort clause is not implemented.")
	}

	source := sources[0]
	sourceType := c.Verify(source.Expression)
	if sourceType == nil {
		return nil, Errorf("Could not determine query source type.")
	}
	element, isList := types.ElementType(sourceType)
	if !isList {
		element = sourceType
	}

	c.PushSymbol(Symbol{Name: source.Alias, Type: element})
	defer c.PopSymbol()

	relationships, err := QueryRelationships(n)
	if err != nil {
		return nil, err
	}
	for _, rel := range relationships {
		if err := verifyRelationship(c, rel); err != nil {
			return nil, err
		}
	}

	if where, ok := n.ASTChild("where"); ok {
		if err := c.VerifyType(c.Verify(where), types.Boolean); err != nil {
			return nil, err
		}
	}

	resultType := element
	if ret, ok := QueryReturn(n); ok {
		resultType = c.Verify(ret)
		if resultType == nil {
			return nil, Errorf("Could not determine type of '%s' expression.", ret.Name)
		}
	}
	if isList {
		return types.NewListType(resultType), nil
	}
	return resultType, nil
}

func verifyRelationship(c *Context, rel Relationship) error {
	t := c.Verify(rel.Expression)
	if t == nil {
		return Errorf("Could not determine source expression for alias '%s'.", rel.Alias)
	}
	element, ok := types.ElementType(t)
	if !ok {
		element = t
	}
	c.PushSymbol(Symbol{Name: rel.Alias, Type: element})
	defer c.PopSymbol()
	return c.VerifyType(c.Verify(rel.SuchThat), types.Boolean)
}

func verifyAliasRef(c *Context, n *ast.ASTNode) (types.DataType, error) {
	name, _ := n.Attr("name")
	s, err := c.ResolveSymbol(name)
	if err != nil {
		return nil, err
	}
	return s.Type, nil
}
