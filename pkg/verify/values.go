package verify

import (
	"github.com/google/uuid"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// =============================================================================
// References
// =============================================================================

func verifyExpressionRef(c *Context, n *ast.ASTNode) (types.DataType, error) {
	library, _ := n.Attr("libraryName")
	name, _ := n.Attr("name")
	def, err := c.ResolveExpressionRef(library, name)
	if err != nil {
		return nil, err
	}
	t := c.ResultType(def.Expression)
	if t == nil {
		return nil, Errorf("Invalid forward reference.")
	}
	return t, nil
}

func verifyParameterRef(c *Context, n *ast.ASTNode) (types.DataType, error) {
	library, _ := n.Attr("libraryName")
	name, _ := n.Attr("name")
	p, err := c.ResolveParameterRef(library, name)
	if err != nil {
		return nil, err
	}
	return p.ParameterType, nil
}

func verifyValueSetRef(c *Context, n *ast.ASTNode) (types.DataType, error) {
	library, _ := n.Attr("libraryName")
	name, _ := n.Attr("name")
	if _, err := c.ResolveValueSetRef(library, name); err != nil {
		return nil, err
	}
	return types.CodeList, nil
}

func verifyValueSet(*Context, *ast.ASTNode) (types.DataType, error) {
	return types.CodeList, nil
}

func verifyIdentifierRef(c *Context, n *ast.ASTNode) (types.DataType, error) {
	library, _ := n.Attr("libraryName")
	name, _ := n.Attr("name")
	if library != "" {
		library += "."
	}
	return nil, Errorf("Could not resolve identifier %s%s.", library, name)
}

// =============================================================================
// Literals
// =============================================================================

func verifyLiteral(c *Context, n *ast.ASTNode) (types.DataType, error) {
	valueType, _ := n.Attr("valueType")
	return c.ResolveType(valueType)
}

func verifyComplexLiteral(c *Context, n *ast.ASTNode) (types.DataType, error) {
	value, ok := n.Child("value")
	if !ok {
		return nil, Errorf("Could not resolve value element for complex literal.")
	}
	return c.ResolveType(value.Base().NodeType)
}

func verifyRatioLiteral(c *Context, n *ast.ASTNode) (types.DataType, error) {
	c.VerifyChildren(n)
	if len(n.Children) < 2 {
		return nil, Errorf("A ratio literal requires a numerator and a denominator.")
	}
	for _, part := range n.Children[:2] {
		t, err := c.ResolveType(part.Base().NodeType)
		if err != nil {
			return nil, err
		}
		if err := c.VerifyType(t, types.Quantity); err != nil {
			return nil, err
		}
	}
	return types.Ratio, nil
}

// =============================================================================
// Structured values
// =============================================================================

// elementValue returns the value expression of an object element.
func elementValue(el *ast.Node) (*ast.ASTNode, bool) {
	if v, ok := el.ASTChild("value"); ok {
		return v, true
	}
	return el.FirstASTChild()
}

// verifyElements checks each element of a structured value against the
// property of objectType it names.
func verifyElements(c *Context, objectType *types.ObjectType, elements []ast.Element) error {
	for _, e := range elements {
		el := e.Base()
		name, _ := el.Attr("name")
		propertyType, err := c.ResolveProperty(objectType, name)
		if err != nil {
			return err
		}
		value, ok := elementValue(el)
		if !ok {
			return Errorf("Could not determine value expression for element '%s'.", name)
		}
		if err := c.VerifyType(c.Verify(value), propertyType); err != nil {
			return err
		}
	}
	return nil
}

// anonymousType builds an unnamed object type from the elements of a
// structured value.
func anonymousType(c *Context, elements []ast.Element) (*types.ObjectType, error) {
	var props []*types.PropertyDef
	for _, e := range elements {
		el := e.Base()
		name, _ := el.Attr("name")
		value, ok := elementValue(el)
		if !ok {
			return nil, Errorf("Could not determine value expression for element '%s'.", name)
		}
		t := c.Verify(value)
		if t == nil {
			return nil, Errorf("Could not determine type of '%s' expression.", name)
		}
		props = append(props, &types.PropertyDef{Name: name, Type: t})
	}
	return types.NewObjectType(uuid.NewString(), nil, props...), nil
}

func verifyObjectExpression(c *Context, n *ast.ASTNode) (types.DataType, error) {
	elements := n.ChildrenNamed("element")
	classType, ok := n.Attr("classType")
	if !ok || classType == "" {
		return anonymousType(c, elements)
	}
	t, err := c.ResolveType(classType)
	if err != nil {
		return nil, err
	}
	objectType, ok := t.(*types.ObjectType)
	if !ok {
		return nil, Errorf("Class type %s of an object expression must be a structured type.", classType)
	}
	if err := verifyElements(c, objectType, elements); err != nil {
		return nil, err
	}
	return objectType, nil
}

func verifyTuple(c *Context, n *ast.ASTNode) (types.DataType, error) {
	return anonymousType(c, n.ChildrenNamed("element"))
}

func verifyObjectRedefine(c *Context, n *ast.ASTNode) (types.DataType, error) {
	source, ok := n.FirstASTChild()
	if !ok {
		return nil, Errorf("The source expression for an object redefine must evaluate to a value of a structured type.")
	}
	objectType, ok := c.Verify(source).(*types.ObjectType)
	if !ok {
		return nil, Errorf("The source expression for an object redefine must evaluate to a value of a structured type.")
	}

	scope := n.AttrOr("scope", n.AttrOr("Scope", Current))
	c.PushSymbol(Symbol{Name: scope, Type: objectType})
	defer c.PopSymbol()

	var elements []ast.Element
	for _, child := range n.Children {
		if child != ast.Element(source) {
			elements = append(elements, child)
		}
	}
	if err := verifyElements(c, objectType, elements); err != nil {
		return nil, err
	}
	return objectType, nil
}

// =============================================================================
// Selectors
// =============================================================================

func intervalBound(n *ast.ASTNode, names ...string) (*ast.ASTNode, bool) {
	for _, child := range n.ASTChildren() {
		for _, name := range names {
			if child.Name == name {
				return child, true
			}
		}
	}
	return nil, false
}

func verifyInterval(c *Context, n *ast.ASTNode) (types.DataType, error) {
	var beginType, endType types.DataType
	begin, hasBegin := intervalBound(n, "begin", "low")
	if hasBegin {
		beginType = c.Verify(begin)
	}
	end, hasEnd := intervalBound(n, "end", "high")
	if hasEnd {
		endType = c.Verify(end)
	}

	if !hasBegin && !hasEnd {
		return nil, Errorf("Interval selector must specify at least one of the beginning or ending points.")
	}
	if hasBegin && hasEnd && !types.Equal(beginType, endType) {
		return nil, Errorf("Beginning and ending expressions for an interval must evaluate to the same type.")
	}

	point, bound := beginType, begin
	if !hasBegin {
		point, bound = endType, end
	}
	if point == nil {
		return nil, Errorf("Could not determine type of '%s' expression.", bound.Name)
	}
	return types.NewIntervalType(point), nil
}

func verifyList(c *Context, n *ast.ASTNode) (types.DataType, error) {
	children := n.ASTChildren()
	if len(children) == 0 {
		return types.NewListType(types.Any), nil
	}

	elementType := c.Verify(children[0])
	for _, child := range children[1:] {
		if !types.Equal(c.Verify(child), elementType) {
			return nil, Errorf("All elements of a list must be of the same type.")
		}
	}
	if elementType == nil {
		return nil, Errorf("Could not determine type of '%s' expression.", children[0].Name)
	}
	return types.NewListType(elementType), nil
}
