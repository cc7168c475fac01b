package types

import (
	"strings"
)

// Built-in object types.
var (
	Any      = NewObjectType("Any", nil)
	Quantity = NewObjectType("Quantity", Any)
)

// Built-in scalar types.
var (
	Boolean         = NewScalarType("Boolean", Any)
	Integer         = NewScalarType("Integer", Quantity)
	Decimal         = NewScalarType("Decimal", Quantity)
	String          = NewScalarType("String", Any)
	DateTime        = NewScalarType("DateTime", Quantity)
	Time            = NewScalarType("Time", Quantity)
	DateGranularity = NewScalarType("DateGranularity", nil)
)

// Built-in structured types.
var (
	PhysicalQuantity = NewObjectType("PhysicalQuantity", Quantity,
		&PropertyDef{Name: "value", Type: Decimal},
		&PropertyDef{Name: "unit", Type: String},
	)
	Ratio = NewObjectType("Ratio", Quantity,
		&PropertyDef{Name: "numerator", Type: Quantity},
		&PropertyDef{Name: "denominator", Type: Quantity},
	)
	Identifier = NewObjectType("Identifier", Any,
		&PropertyDef{Name: "root", Type: String},
		&PropertyDef{Name: "extension", Type: String},
	)
	Code = NewObjectType("Code", Any,
		&PropertyDef{Name: "code", Type: String},
		&PropertyDef{Name: "codeSystem", Type: String},
		&PropertyDef{Name: "codeSystemName", Type: String},
		&PropertyDef{Name: "codeSystemVersion", Type: String},
		&PropertyDef{Name: "displayName", Type: String},
	)
	CodeList = NewListType(Code)
	Concept  = NewObjectType("Concept", Any,
		&PropertyDef{Name: "codes", Type: CodeList},
		&PropertyDef{Name: "display", Type: String},
	)
	CodedOrdinal = NewObjectType("CodedOrdinal", Code,
		&PropertyDef{Name: "value", Type: Decimal},
	)
	SimpleCode = NewObjectType("SimpleCode", Code)
	EntityName = NewObjectType("EntityName", Any,
		&PropertyDef{Name: "use", Type: String},
		&PropertyDef{Name: "family", Type: String},
		&PropertyDef{Name: "given", Type: NewListType(String)},
	)
	URL = NewObjectType("URL", Any,
		&PropertyDef{Name: "value", Type: String},
		&PropertyDef{Name: "use", Type: String},
	)
)

// Built-in interval types.
var (
	DateTimeInterval         = NewIntervalType(DateTime)
	DecimalInterval          = NewIntervalType(Decimal)
	QuantityInterval         = NewIntervalType(Quantity)
	PhysicalQuantityInterval = NewIntervalType(PhysicalQuantity)
	IntegerInterval          = NewIntervalType(Integer)
)

// Period is a periodic interval of time.
var Period = NewObjectType("Period", Any,
	&PropertyDef{Name: "phase", Type: DateTimeInterval},
	&PropertyDef{Name: "period", Type: PhysicalQuantity},
	&PropertyDef{Name: "alignToCalendar", Type: Boolean},
)

// Legacy names accepted for the decimal and date/time scalars.
const (
	LegacyReal      = "Real"
	LegacyTimestamp = "Timestamp"
)

var builtins = func() map[string]DataType {
	m := make(map[string]DataType)
	for _, t := range []DataType{
		Any, Quantity, Boolean, Integer, Decimal, String, DateTime, Time, DateGranularity,
		PhysicalQuantity, Ratio, Identifier, Code, Concept, CodedOrdinal, SimpleCode,
		EntityName, URL, Period,
	} {
		m[strings.ToLower(t.Name())] = t
	}
	m[strings.ToLower(LegacyReal)] = Decimal
	m[strings.ToLower(LegacyTimestamp)] = DateTime
	return m
}()

// Builtin returns the built-in type with the given (case-insensitive) name.
// List<T> and Interval<T> forms are parsed recursively.
func Builtin(name string) (DataType, bool) {
	name = strings.TrimSpace(name)
	if inner, ok := genericArg(name, "List"); ok {
		elem, ok := Builtin(inner)
		if !ok {
			return nil, false
		}
		return NewListType(elem), true
	}
	if inner, ok := genericArg(name, "Interval"); ok {
		point, ok := Builtin(inner)
		if !ok {
			return nil, false
		}
		return NewIntervalType(point), true
	}
	t, ok := builtins[strings.ToLower(name)]
	return t, ok
}

func genericArg(name, generic string) (string, bool) {
	if len(name) < len(generic)+2 || !strings.EqualFold(name[:len(generic)], generic) {
		return "", false
	}
	rest := name[len(generic):]
	if rest[0] != '<' || rest[len(rest)-1] != '>' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

// IsScalar reports whether t is a scalar type.
func IsScalar(t DataType) bool {
	_, ok := t.(*ScalarType)
	return ok
}

// ElementType returns the element type when t is a list.
func ElementType(t DataType) (DataType, bool) {
	if l, ok := t.(*ListType); ok {
		return l.ElementType, true
	}
	return nil, false
}

// SplitGeneric splits "List<T>" or "Interval<T>" into the generic name and
// its argument.
func SplitGeneric(name string) (generic, arg string, ok bool) {
	name = strings.TrimSpace(name)
	for _, g := range []string{"List", "Interval"} {
		if inner, ok := genericArg(name, g); ok {
			return g, inner, true
		}
	}
	return "", "", false
}
