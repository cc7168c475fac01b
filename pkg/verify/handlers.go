package verify

import (
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// defaultVerifiers are registered under both the HeD and the ELM
// namespaces.
func defaultVerifiers() map[string]NodeVerifier {
	m := map[string]NodeVerifier{
		// References and values
		"ExpressionRef":    verifyExpressionRef,
		"ParameterRef":     verifyParameterRef,
		"ValueSetRef":      verifyValueSetRef,
		"ValueSet":         verifyValueSet,
		"Literal":          verifyLiteral,
		"ComplexLiteral":   verifyComplexLiteral,
		"RatioLiteral":     verifyRatioLiteral,
		"ObjectExpression": verifyObjectExpression,
		"ObjectRedefine":   verifyObjectRedefine,
		"Tuple":            verifyTuple,
		"Interval":         verifyInterval,
		"List":             verifyList,

		// Logical, conditional and nulls
		"And":         naryVerifier(types.Boolean, types.Boolean),
		"Or":          naryVerifier(types.Boolean, types.Boolean),
		"Concat":      naryVerifier(types.String, types.String),
		"Conditional": verifyConditional,
		"Case":        verifyCase,
		"Null":        verifyNull,
		"IsNull":      verifyIsNull,
		"IsTrue":      verifyIsTrueOrFalse,
		"IsFalse":     verifyIsTrueOrFalse,
		"IfNull":      verifyIfNull,
		"Coalesce":    verifyCoalesce,
		"Is":          typeTestVerifier("isType", types.Boolean),
		"As":          typeTestVerifier("asType", nil),
		"Convert":     typeTestVerifier("toType", nil),
		"Equal":       equalVerifier("Equal"),
		"NotEqual":    equalVerifier("NotEqual"),
		"MinValue":    verifyBoundaryValue,
		"MaxValue":    verifyBoundaryValue,
		"Length":      verifyLength,

		// Lists and intervals
		"First":            firstOrLastVerifier,
		"Last":             firstOrLastVerifier,
		"Indexer":          verifyIndexer,
		"Contains":         membershipVerifier(0, 1),
		"In":               membershipVerifier(1, 0),
		"IndexOf":          verifyIndexOf,
		"Includes":         verifyBinaryListOrInterval,
		"IncludedIn":       verifyBinaryListOrInterval,
		"ProperIncludes":   verifyBinaryListOrInterval,
		"ProperIncludedIn": verifyBinaryListOrInterval,
		"Before":           verifyBinaryInterval,
		"After":            verifyBinaryInterval,
		"Meets":            verifyBinaryInterval,
		"Overlaps":         verifyBinaryInterval,
		"Union":            verifyNaryListOrInterval,
		"Intersect":        verifyNaryListOrInterval,
		"Difference":       verifyNaryListOrInterval,
		"Begin":            verifyUnaryInterval,
		"End":              verifyUnaryInterval,
		"Collapse":         unaryListVerifier(collapseType),
		"Expand":           unaryListVerifier(expandType),
		"IsEmpty":          unaryListVerifier(booleanType),
		"IsNotEmpty":       unaryListVerifier(booleanType),
		"Sort":             unaryListVerifier(sameType),
		"Distinct":         unaryListVerifier(sameType),
		"Filter":           verifyFilter,
		"ForEach":          verifyForEach,
		"Current":          verifyCurrent,
		"Property":         verifyProperty,

		// Aggregates
		"Count":              aggregateVerifier(countType),
		"Sum":                aggregateVerifier(sumType),
		"Min":                aggregateVerifier(comparableType("Less")),
		"Max":                aggregateVerifier(comparableType("Greater")),
		"Avg":                aggregateVerifier(meanType),
		"Median":             aggregateVerifier(meanType),
		"Mode":               aggregateVerifier(elementOf),
		"Variance":           aggregateVerifier(meanType),
		"PopulationVariance": aggregateVerifier(meanType),
		"StdDev":             aggregateVerifier(meanType),
		"PopulationStdDev":   aggregateVerifier(meanType),
		"AllTrue":            aggregateVerifier(logicalType),
		"AnyTrue":            aggregateVerifier(logicalType),

		// Clinical requests
		"DataRequest":     dataRequestVerifier(false),
		"ClinicalRequest": dataRequestVerifier(true),
		"Retrieve":        dataRequestVerifier(true),

		// Queries
		"Query":          verifyQuery,
		"AliasRef":       verifyAliasRef,
		"QueryDefineRef": unsupported("Query define reference"),
		"IdentifierRef":  verifyIdentifierRef,
		"FunctionRef":    unsupported("Function reference"),
		"Quantity":       unsupported("Quantity"),
	}
	for kind, t := range literalTypes {
		m[kind] = literalVerifier(t)
	}
	return m
}

// literalTypes maps typed literal kinds to their fixed result types.
var literalTypes = map[string]types.DataType{
	"BooleanLiteral":                  types.Boolean,
	"IntegerLiteral":                  types.Integer,
	"RealLiteral":                     types.Decimal,
	"DecimalLiteral":                  types.Decimal,
	"StringLiteral":                   types.String,
	"DateTimeLiteral":                 types.DateTime,
	"TimestampLiteral":                types.DateTime,
	"TimeLiteral":                     types.Time,
	"CodeLiteral":                     types.Code,
	"ConceptLiteral":                  types.Concept,
	"CodedOrdinalLiteral":             types.CodedOrdinal,
	"SimpleCodeLiteral":               types.SimpleCode,
	"IdentifierLiteral":               types.Identifier,
	"EntityNameLiteral":               types.EntityName,
	"PhysicalQuantityLiteral":         types.PhysicalQuantity,
	"PeriodLiteral":                   types.Period,
	"UrlLiteral":                      types.URL,
	"IntegerIntervalLiteral":          types.IntegerInterval,
	"RealIntervalLiteral":             types.DecimalInterval,
	"QuantityIntervalLiteral":         types.QuantityInterval,
	"PhysicalQuantityIntervalLiteral": types.PhysicalQuantityInterval,
	"TimestampIntervalLiteral":        types.DateTimeInterval,
}

func registerDefaults(v *Verifier) {
	for kind, h := range defaultVerifiers() {
		v.Handle(ast.HeD(kind), h)
		v.Handle(ast.ELM(kind), h)
	}
	v.HandleOperators(ast.NamespaceELM, v.operators.Names()...)
}

func literalVerifier(t types.DataType) NodeVerifier {
	return func(*Context, *ast.ASTNode) (types.DataType, error) {
		return t, nil
	}
}

func unsupported(what string) NodeVerifier {
	return func(*Context, *ast.ASTNode) (types.DataType, error) {
		return nil, Errorf("%s verification is not implemented.", what)
	}
}
