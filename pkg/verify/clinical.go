package verify

import (
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Request cardinalities.
const (
	CardinalitySingle   = "Single"
	CardinalityMultiple = "Multiple"
)

// dataRequestVerifier resolves the requested model type and checks the
// property references of the request against it. Clinical requests
// additionally carry code and date filters.
func dataRequestVerifier(clinical bool) NodeVerifier {
	return func(c *Context, n *ast.ASTNode) (types.DataType, error) {
		dataTypeName, _ := n.Attr("dataType")
		t, err := c.ResolveType(dataTypeName)
		if err != nil {
			return nil, err
		}
		dataType, ok := t.(*types.ObjectType)
		if !ok {
			return nil, Errorf("Data type %s of a data request must be a structured type.", dataTypeName)
		}

		if err := verifyRequestFilters(c, n, dataType); err != nil {
			return nil, err
		}
		if clinical {
			if err := verifyClinicalFilters(c, n, dataType); err != nil {
				return nil, err
			}
		}

		switch cardinality := n.AttrOr("cardinality", CardinalityMultiple); {
		case strings.EqualFold(cardinality, CardinalitySingle):
			return dataType, nil
		case strings.EqualFold(cardinality, CardinalityMultiple):
			return types.NewListType(dataType), nil
		default:
			return nil, Errorf("Invalid request cardinality %s.", cardinality)
		}
	}
}

func verifyRequestFilters(c *Context, n *ast.ASTNode, dataType *types.ObjectType) error {
	if idProperty, ok := n.Attr("idProperty"); ok && idProperty != "" {
		t, err := c.ResolveProperty(dataType, idProperty)
		if err != nil {
			return err
		}
		if !types.Equivalent(t, types.Identifier) && !types.Equal(t, types.String) {
			return Errorf("Id property must be either an Identifier or a String.")
		}
	}
	if timeOffset, ok := n.ASTChild("timeOffset"); ok {
		if err := c.VerifyType(c.Verify(timeOffset), types.Period); err != nil {
			return err
		}
	}
	return nil
}

func verifyClinicalFilters(c *Context, n *ast.ASTNode, dataType *types.ObjectType) error {
	if codeProperty, ok := n.Attr("codeProperty"); ok && codeProperty != "" {
		t, err := c.ResolveProperty(dataType, codeProperty)
		if err != nil {
			return err
		}
		// Model code types with their own value set membership (codeable
		// concepts) are accepted too.
		if err := c.VerifyType(t, types.Code); err != nil {
			if _, opErr := c.v.operators.ResolveCall("InValueSet", operator.Signature{t, types.CodeList}); opErr != nil {
				return err
			}
		}
	}
	if dateProperty, ok := n.Attr("dateProperty"); ok && dateProperty != "" {
		t, err := c.ResolveProperty(dataType, dateProperty)
		if err != nil {
			return err
		}
		if !types.SubTypeOf(t, types.DateTimeInterval) {
			if err := c.VerifyType(t, types.DateTime); err != nil {
				return err
			}
		}
	}
	if codes, ok := n.ASTChild("codes"); ok {
		if err := c.VerifyType(c.Verify(codes), types.CodeList); err != nil {
			return err
		}
	}
	if dateRange, ok := n.ASTChild("dateRange"); ok {
		if err := c.VerifyType(c.Verify(dateRange), types.DateTimeInterval); err != nil {
			return err
		}
	}
	return nil
}
