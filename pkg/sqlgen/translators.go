package sqlgen

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// defaultTranslators are registered under both the HeD and the ELM
// namespaces.
func defaultTranslators() map[string]translate.NodeTranslator {
	m := map[string]translate.NodeTranslator{
		// References and values
		"ExpressionRef":           translateDefinitionRef,
		"ParameterRef":            translateDefinitionRef,
		"Literal":                 translateLiteral,
		"PhysicalQuantityLiteral": translatePhysicalQuantity,
		"Tuple":                   translateTuple,
		"ObjectExpression":        translateTuple,
		"Interval":                translateInterval,
		"List":                    translateList,

		// Logical, conditional and nulls
		"And":         translateAnd,
		"Or":          translateOr,
		"Not":         translateNot,
		"Xor":         translateXor,
		"Conditional": translateConditional,
		"Case":        translateCase,
		"Null":        translateNull,
		"IsNull":      translateIsNull,
		"IfNull":      function(dialect.FnIfNull),
		"Coalesce":    translateCoalesce,
		"As":          translatePassThrough,

		// Comparison
		"Equal":          binary(sqlast.OpEq),
		"NotEqual":       binary(sqlast.OpNe),
		"Less":           binary(sqlast.OpLt),
		"Greater":        binary(sqlast.OpGt),
		"LessOrEqual":    binary(sqlast.OpLe),
		"GreaterOrEqual": binary(sqlast.OpGe),

		// Arithmetic
		"Add":             translateAdd,
		"Subtract":        translateSubtract,
		"Multiply":        binary(sqlast.OpMul),
		"Divide":          translateDivide,
		"TruncatedDivide": function(dialect.FnTruncDiv),
		"Modulo":          function(dialect.FnMod),
		"Ceiling":         function(dialect.FnCeiling),
		"Floor":           function(dialect.FnFloor),
		"Abs":             function(dialect.FnAbs),
		"Negate":          translateNegate,
		"Round":           function(dialect.FnRound),
		"Power":           function(dialect.FnPower),

		// String
		"Concatenate": translateConcat,
		"Concat":      translateConcat,
		"Upper":       function(dialect.FnUpper),
		"Lower":       function(dialect.FnLower),
		"Length":      translateLength,

		// Date and time
		"DateAdd":         translateDateAdd,
		"Today":           function(dialect.FnToday),
		"Now":             function(dialect.FnNow),
		"DurationBetween": translateDurationBetween,
		"DateFrom":        function(dialect.FnDateFrom),
		"CalculateAge":    translateCalculateAge,
		"CalculateAgeAt":  translateCalculateAge,

		// Lists
		"First":         firstOrLast(false),
		"Last":          firstOrLast(true),
		"SingletonFrom": translateSingletonFrom,
		"IsEmpty":       emptiness(true),
		"IsNotEmpty":    emptiness(false),
		"In":            translateIn,

		// Queries and clinical requests
		"Property":        translateProperty,
		"Query":           translateQuery,
		"AliasRef":        translateAliasRef,
		"QueryDefineRef":  translateQueryDefineRef,
		"Retrieve":        translateRequest,
		"ClinicalRequest": translateRequest,
		"DataRequest":     translateRequest,
		"ValueSetRef":     translateValueSetRef,
		"InValueSet":      translateInValueSet,
	}
	for kind, t := range literalTypes {
		m[kind] = typedLiteral(t)
	}
	for _, kind := range unsupportedKinds {
		m[kind] = unsupportedKind(kind)
	}
	return m
}

// literalTypes maps typed literal kinds with a scalar representation to
// their types.
var literalTypes = map[string]types.DataType{
	"BooleanLiteral":   types.Boolean,
	"IntegerLiteral":   types.Integer,
	"RealLiteral":      types.Decimal,
	"DecimalLiteral":   types.Decimal,
	"StringLiteral":    types.String,
	"DateTimeLiteral":  types.DateTime,
	"TimestampLiteral": types.DateTime,
}

// unsupportedKinds verify but have no relational translation.
var unsupportedKinds = []string{
	"ComplexLiteral", "RatioLiteral", "ObjectRedefine", "ValueSet",
	"IsTrue", "IsFalse", "Is", "Convert", "MinValue", "MaxValue",
	"Indexer", "Contains", "IndexOf", "Includes", "IncludedIn",
	"ProperIncludes", "ProperIncludedIn", "Before", "After", "Meets", "Overlaps",
	"Union", "Intersect", "Difference", "Begin", "End", "Collapse", "Expand",
	"Sort", "Distinct", "Filter", "ForEach", "Current",
	"Count", "Sum", "Min", "Max", "Avg", "Median", "Mode", "Variance",
	"PopulationVariance", "StdDev", "PopulationStdDev", "AllTrue", "AnyTrue",
}

func unsupportedKind(kind string) translate.NodeTranslator {
	return func(*translate.Context, *ast.ASTNode) (any, error) {
		return nil, unsupported("%s translation is not supported.", kind)
	}
}

// Register installs the SQL node translators into r.
func Register(r *translate.Registry) {
	for kind, t := range defaultTranslators() {
		r.Handle(ast.HeD(kind), t)
		r.Handle(ast.ELM(kind), t)
	}
}

// NewRegistry returns a registry with the SQL node translators installed.
func NewRegistry() *translate.Registry {
	r := translate.NewRegistry()
	Register(r)
	return r
}
