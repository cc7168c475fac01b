package operator

import (
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Base is the core module: logical, conversion, comparison, arithmetic,
// string, date/time and terminology operators.
type Base struct{}

// Name implements Registrar.
func (Base) Name() string { return "base" }

// Operators implements Registrar.
func (Base) Operators() []*Operator {
	var ops []*Operator
	add := func(name string, result types.DataType, operands ...types.DataType) {
		ops = append(ops, New(name, result, operands...))
	}
	each := func(name string, result types.DataType, operandTypes ...types.DataType) {
		for _, t := range operandTypes {
			add(name, result, t, t)
		}
	}
	unary := func(name string, operandTypes ...types.DataType) {
		for _, t := range operandTypes {
			add(name, t, t)
		}
	}

	// Logical
	add("And", types.Boolean, types.Boolean, types.Boolean)
	add("Or", types.Boolean, types.Boolean, types.Boolean)
	add("Xor", types.Boolean, types.Boolean, types.Boolean)
	add("Not", types.Boolean, types.Boolean)

	// Conversion
	for _, t := range []types.DataType{types.Boolean, types.Integer, types.Decimal, types.DateTime, types.Time, types.Quantity} {
		add("ToString", types.String, t)
	}
	add("ToBoolean", types.Boolean, types.String)
	add("ToInteger", types.Integer, types.String)
	add("ToDecimal", types.Decimal, types.String)
	add("ToDecimal", types.Decimal, types.Integer)
	add("ToDateTime", types.DateTime, types.String)
	add("ToTime", types.Time, types.String)
	add("ToQuantity", types.Quantity, types.String)

	// Comparison
	equatable := []types.DataType{types.Boolean, types.Integer, types.Decimal, types.String, types.DateTime, types.Time, types.Quantity, types.Code, types.Concept}
	each("Equal", types.Boolean, equatable...)
	each("Matches", types.Boolean, equatable...)
	each("NotEqual", types.Boolean, equatable...)
	ordered := []types.DataType{types.Integer, types.Decimal, types.String, types.DateTime, types.Time, types.Quantity, types.Ratio}
	each("Less", types.Boolean, ordered...)
	each("Greater", types.Boolean, ordered...)
	each("LessOrEqual", types.Boolean, ordered...)
	each("GreaterOrEqual", types.Boolean, ordered...)

	// Arithmetic
	add("Add", types.Integer, types.Integer, types.Integer)
	add("Add", types.Decimal, types.Decimal, types.Decimal)
	add("Add", types.Quantity, types.Quantity, types.Quantity)
	add("Subtract", types.Integer, types.Integer, types.Integer)
	add("Subtract", types.Decimal, types.Decimal, types.Decimal)
	add("Subtract", types.Quantity, types.Quantity, types.Quantity)
	add("Multiply", types.Integer, types.Integer, types.Integer)
	add("Multiply", types.Decimal, types.Decimal, types.Decimal)
	add("Multiply", types.Quantity, types.Quantity, types.Decimal)
	add("Multiply", types.Quantity, types.Decimal, types.Quantity)
	add("Multiply", types.Quantity, types.Quantity, types.Quantity)
	add("Divide", types.Decimal, types.Integer, types.Integer)
	add("Divide", types.Decimal, types.Decimal, types.Decimal)
	add("Divide", types.Quantity, types.Quantity, types.Decimal)
	add("Divide", types.Quantity, types.Quantity, types.Quantity)
	add("TruncatedDivide", types.Integer, types.Integer, types.Integer)
	add("TruncatedDivide", types.Decimal, types.Decimal, types.Decimal)
	add("Modulo", types.Integer, types.Integer, types.Integer)
	add("Modulo", types.Decimal, types.Decimal, types.Decimal)
	add("Ceiling", types.Integer, types.Decimal)
	add("Floor", types.Integer, types.Decimal)
	add("Truncate", types.Integer, types.Decimal)
	unary("Abs", types.Integer, types.Decimal, types.Quantity)
	unary("Negate", types.Integer, types.Decimal, types.Quantity)
	add("Round", types.Decimal, types.Decimal)
	add("Round", types.Decimal, types.Decimal, types.Integer)
	add("Ln", types.Decimal, types.Decimal)
	add("Log", types.Decimal, types.Decimal, types.Decimal)
	add("Power", types.Integer, types.Integer, types.Integer)
	add("Power", types.Decimal, types.Decimal, types.Decimal)
	unary("Successor", types.Integer, types.Decimal, types.DateTime, types.Time, types.Quantity)
	unary("Predecessor", types.Integer, types.Decimal, types.DateTime, types.Time, types.Quantity)

	// String
	add("Concatenate", types.String, types.String, types.String)
	add("Add", types.String, types.String, types.String)
	add("Combine", types.String, types.NewListType(types.String))
	add("Combine", types.String, types.NewListType(types.String), types.String)
	add("Split", types.NewListType(types.String), types.String)
	add("Split", types.NewListType(types.String), types.String, types.String)
	add("Upper", types.String, types.String)
	add("Lower", types.String, types.String)
	add("PositionOf", types.Integer, types.String, types.String)
	add("Substring", types.String, types.String, types.Integer)
	add("Substring", types.String, types.String, types.Integer, types.Integer)

	// Date and time
	add("DateAdd", types.DateTime, types.DateTime, types.DateGranularity, types.Integer)
	add("DateAdd", types.DateTime, types.DateTime, types.DateGranularity, types.Decimal)
	add("DateDiff", types.Decimal, types.DateTime, types.DateTime, types.DateGranularity)
	add("DatePart", types.Decimal, types.DateTime, types.DateGranularity)
	add("Add", types.DateTime, types.DateTime, types.Quantity)
	add("Add", types.Time, types.Time, types.Quantity)
	add("Subtract", types.DateTime, types.DateTime, types.Quantity)
	add("Subtract", types.Time, types.Time, types.Quantity)
	for _, t := range []types.DataType{types.DateTime, types.Time} {
		add("After", types.Boolean, t, t)
		add("Before", types.Boolean, t, t)
		add("SameAs", types.Boolean, t, t)
		add("SameOrAfter", types.Boolean, t, t)
		add("SameOrBefore", types.Boolean, t, t)
		add("DifferenceBetween", types.Integer, t, t)
		add("DurationBetween", types.Integer, t, t)
	}
	components := []types.DataType{}
	for i := 0; i < 7; i++ {
		components = append(components, types.Integer)
		add("DateTime", types.DateTime, components...)
	}
	add("DateTime", types.DateTime, append(components, types.Decimal)...)
	components = nil
	for i := 0; i < 4; i++ {
		components = append(components, types.Integer)
		add("Time", types.Time, components...)
	}
	add("Time", types.Time, types.Integer, types.Integer, types.Integer, types.Integer, types.Decimal)
	add("Today", types.DateTime)
	add("Now", types.DateTime)
	add("TimeOfDay", types.Time)
	add("DateFrom", types.DateTime, types.DateTime)
	add("TimeFrom", types.Time, types.DateTime)
	add("TimezoneFrom", types.Decimal, types.DateTime)
	add("TimezoneFrom", types.Decimal, types.Time)

	// Terminology
	add("InCodeSystem", types.Boolean, types.Code, types.CodeList)
	add("InCodeSystem", types.Boolean, types.Concept, types.CodeList)
	add("InValueSet", types.Boolean, types.Code, types.CodeList)
	add("InValueSet", types.Boolean, types.Concept, types.CodeList)
	add("ToConcept", types.Concept, types.Code)

	return ops
}

// Clinical adds the clinical functions of the logical model: age
// calculation and date/time component extraction.
type Clinical struct{}

// Name implements Registrar.
func (Clinical) Name() string { return "clinical" }

// Operators implements Registrar.
func (Clinical) Operators() []*Operator {
	return []*Operator{
		New("InValueSet", types.Boolean, types.Code, types.CodeList),
		New("CalculateAge", types.Integer, types.DateTime),
		New("CalculateAgeAt", types.Integer, types.DateTime, types.DateTime),
		New("DateTimeComponentFrom", types.Integer, types.DateTime),
		New("DurationBetween", types.Integer, types.DateTime, types.DateTime),
		New("SameAs", types.Boolean, types.DateTime, types.DateTime),
	}
}

var (
	_ Registrar = Base{}
	_ Registrar = Clinical{}
)
