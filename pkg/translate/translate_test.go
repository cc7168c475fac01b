package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/internal/testutil"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

type renamer struct{ table string }

func (r renamer) TransformModel(_ *Context, source *types.ObjectType) (*types.ObjectType, error) {
	return types.NewObjectType(r.table, source.BaseType()), nil
}

func (r renamer) TransformModelPath(_ *Context, _ *types.ObjectType, _ *ast.ASTNode, path string) (any, error) {
	return r.table + "." + path, nil
}

func newContext(t *testing.T, r *Registry, annotations *ast.Annotations) *Context {
	t.Helper()
	return NewContext(context.Background(), Options{
		Registry:    r,
		Annotations: annotations,
		State:       "state",
		Logger:      testutil.NewTestLogger(t),
	})
}

func TestContext_Translate(t *testing.T) {
	r := NewRegistry()
	r.HandleAll(ast.NamespaceHeD, func(c *Context, n *ast.ASTNode) (any, error) {
		return n.AttrOr("value", "") + ":" + c.ResultType(n).Name(), nil
	}, "Literal", "IntegerLiteral")

	annotations := ast.NewAnnotations()
	lit := testutil.Int("4")
	require.NoError(t, annotations.SetResultType(lit, types.Integer))
	c := newContext(t, r, annotations)

	got, err := c.Translate(lit)
	require.NoError(t, err)
	assert.Equal(t, "4:Integer", got)
	assert.Equal(t, "state", c.State())
	assert.Equal(t, []string{ast.HeD("IntegerLiteral"), ast.HeD("Literal")}, r.Kinds())
}

func TestContext_Translate_Errors(t *testing.T) {
	annotations := ast.NewAnnotations()
	verified := testutil.Expr("Add", nil)
	require.NoError(t, annotations.SetResultType(verified, types.Integer))

	c := newContext(t, NewRegistry(), annotations)

	_, err := c.Translate(testutil.Int("1"))
	assert.ErrorIs(t, err, ErrNotVerified)

	_, err = c.Translate(verified)
	assert.ErrorIs(t, err, ErrNoTranslator)
	assert.EqualError(t, err, "Could not find a handler map for name: urn:hl7-org:v3:knowledgeartifact:r1:Add.")

	var handlerErr *HandlerError
	require.True(t, errors.As(err, &handlerErr))
	assert.Equal(t, ast.HeD("Add"), handlerErr.Name)
}

func TestContext_Translate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewContext(ctx, Options{})

	_, err := c.Translate(testutil.Int("1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContext_ModelTranslators(t *testing.T) {
	r := NewRegistry()
	r.HandleModel("Problem", renamer{table: "problems"})
	c := newContext(t, r, nil)
	problem := types.NewObjectType("Problem", types.Any)

	assert.True(t, c.HasModelTranslator("problem"))
	assert.False(t, c.HasModelTranslator("Encounter"))

	mapped, err := c.TransformModel(problem)
	require.NoError(t, err)
	assert.Equal(t, "problems", mapped.Name())

	path, err := c.TransformModelPath(problem, nil, "problemCode")
	require.NoError(t, err)
	assert.Equal(t, "problems.problemCode", path)

	_, err = c.TransformModel(types.NewObjectType("Encounter", types.Any))
	assert.ErrorIs(t, err, ErrNoTranslator)
}
