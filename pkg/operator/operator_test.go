package operator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/types"
)

type stubRegistrar struct {
	name string
	ops  []*Operator
}

func (s stubRegistrar) Name() string          { return s.name }
func (s stubRegistrar) Operators() []*Operator { return s.ops }

func TestSignature_String(t *testing.T) {
	assert.Equal(t, "()", Signature{}.String())
	assert.Equal(t, "(Integer, List<Code>)", Signature{types.Integer, types.CodeList}.String())
	assert.Equal(t, "(<unknown>)", Signature{nil}.String())
}

func TestRegistry_ResolveIsExact(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("Add", types.Integer, types.Integer, types.Integer)))

	op, err := r.ResolveCall("Add", Signature{types.Integer, types.Integer})
	require.NoError(t, err)
	assert.Same(t, types.Integer, op.ResultType)

	_, err = r.ResolveCall("Add", Signature{types.Decimal, types.Decimal})
	var rerr *ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.False(t, rerr.UnknownName)
	assert.Equal(t, "Could not resolve signature '(Decimal, Decimal)' for operator 'Add'.", err.Error())

	// Subtypes are not widened at lookup time.
	_, err = r.ResolveCall("Add", Signature{types.Integer, types.Quantity})
	assert.Error(t, err)

	legacyReal, ok := types.Builtin(types.LegacyReal)
	require.True(t, ok)
	require.NoError(t, r.Register(New("Add", types.Decimal, legacyReal, legacyReal)))
	op, err = r.ResolveCall("Add", Signature{types.Decimal, types.Decimal})
	require.NoError(t, err)
	assert.True(t, types.Equal(types.Decimal, op.ResultType))
}

func TestRegistry_UnknownName(t *testing.T) {
	r := NewRegistry()
	_, err := r.ResolveCall("Frobnicate", nil)
	var rerr *ResolveError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.UnknownName)
	assert.Equal(t, "Could not resolve call to operator name 'Frobnicate'.", err.Error())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("Not", types.Boolean, types.Boolean)))

	err := r.Register(New("Not", types.Boolean, types.Boolean))
	var derr *DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Signature '(Boolean)' is already registered for operator 'Not'.", err.Error())
	assert.Equal(t, 1, r.Len())

	require.Error(t, r.Register(New("Broken", nil)))
}

func TestRegistry_Install(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Install(Base{}, Clinical{}))

	_, err := r.ResolveCall("CalculateAgeAt", Signature{types.DateTime, types.DateTime})
	assert.NoError(t, err)

	before := r.Len()
	require.NoError(t, r.Install(Clinical{}), "restated overloads are skipped")
	assert.Equal(t, before, r.Len())

	conflict := stubRegistrar{name: "conflict", ops: []*Operator{New("Not", types.Integer, types.Boolean)}}
	err = r.Install(conflict)
	var derr *DuplicateError
	require.True(t, errors.As(err, &derr))
	assert.Contains(t, err.Error(), "installing conflict operators")
}

func TestBase_Overloads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Install(Base{}))

	tests := []struct {
		name     string
		operands Signature
		result   types.DataType
	}{
		{"Divide", Signature{types.Integer, types.Integer}, types.Decimal},
		{"Add", Signature{types.String, types.String}, types.String},
		{"Add", Signature{types.DateTime, types.Quantity}, types.DateTime},
		{"Multiply", Signature{types.Decimal, types.Quantity}, types.Quantity},
		{"Today", Signature{}, types.DateTime},
		{"DateTime", Signature{types.Integer, types.Integer, types.Integer}, types.DateTime},
		{"DateTime", Signature{
			types.Integer, types.Integer, types.Integer, types.Integer,
			types.Integer, types.Integer, types.Integer, types.Decimal,
		}, types.DateTime},
		{"Time", Signature{types.Integer, types.Integer, types.Integer, types.Integer, types.Decimal}, types.Time},
		{"Split", Signature{types.String, types.String}, types.NewListType(types.String)},
		{"InValueSet", Signature{types.Concept, types.CodeList}, types.Boolean},
		{"Equal", Signature{types.Code, types.Code}, types.Boolean},
		{"ToConcept", Signature{types.Code}, types.Concept},
	}
	for _, tt := range tests {
		t.Run(tt.name+tt.operands.String(), func(t *testing.T) {
			op, err := r.ResolveCall(tt.name, tt.operands)
			require.NoError(t, err)
			assert.True(t, types.Equal(tt.result, op.ResultType), "got %s", op.ResultType)
		})
	}

	_, err := r.ResolveCall("DateTime", Signature{types.Integer, types.Integer, types.Integer, types.Integer, types.Integer, types.Integer, types.Integer, types.Integer})
	assert.Error(t, err, "the eighth component is a decimal")
}

func TestRegistry_All(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("Not", types.Boolean, types.Boolean)))
	require.NoError(t, r.Register(New("And", types.Boolean, types.Boolean, types.Boolean)))
	require.NoError(t, r.Register(New("Abs", types.Integer, types.Integer)))
	require.NoError(t, r.Register(New("Abs", types.Decimal, types.Decimal)))

	var got []string
	for _, op := range r.All() {
		got = append(got, op.Name+op.Signature.String())
	}
	assert.Equal(t, []string{"Abs(Decimal)", "Abs(Integer)", "And(Boolean, Boolean)", "Not(Boolean)"}, got)
	assert.Equal(t, []string{"Abs", "And", "Not"}, r.Names())
	assert.True(t, r.Has("Abs"))
	assert.Len(t, r.Overloads("Abs"), 2)
}
