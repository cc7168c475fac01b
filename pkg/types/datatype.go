// Package types defines the structural type system used to verify clinical
// expression trees.
//
// There are four kinds of type descriptor:
//   - ScalarType: a named primitive (Boolean, Integer, String, ...)
//   - ListType: a homogeneous list of an element type
//   - IntervalType: an interval over a point type
//   - ObjectType: a named, ordered set of properties
//
// Equality is nominal for scalar and object types and structural for list
// and interval types. Equivalence additionally treats two object types with
// the same property shape as equivalent. Subtyping walks the base type chain.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// DataType is implemented by every type descriptor.
type DataType interface {
	// Name returns the display name of the type, e.g. "List<Integer>".
	Name() string

	// BaseType returns the immediate base type, or nil.
	BaseType() DataType

	// EqualTo reports nominal/structural equality.
	EqualTo(other DataType) bool

	// EquivalentTo reports equivalence (see package doc).
	EquivalentTo(other DataType) bool

	// IsSubType reports whether the receiver is a subtype of other.
	IsSubType(other DataType) bool

	// IsSuperType reports whether the receiver is a supertype of other.
	IsSuperType(other DataType) bool

	String() string
}

// Equal reports whether a and b are both non-nil and equal.
func Equal(a, b DataType) bool {
	return a != nil && b != nil && a.EqualTo(b)
}

// Equivalent reports whether a and b are both non-nil and equivalent.
func Equivalent(a, b DataType) bool {
	return a != nil && b != nil && a.EquivalentTo(b)
}

// SubTypeOf reports whether a is a subtype of b.
func SubTypeOf(a, b DataType) bool {
	return a != nil && b != nil && a.IsSubType(b)
}

// SuperTypeOf reports whether a is a supertype of b.
func SuperTypeOf(a, b DataType) bool {
	return a != nil && b != nil && a.IsSuperType(b)
}

// walkSubType is the default subtype rule: self or any ancestor is
// equivalent to other.
func walkSubType(t DataType, other DataType) bool {
	for current := t; current != nil; current = current.BaseType() {
		if current.EquivalentTo(other) {
			return true
		}
	}
	return false
}

// walkSuperType is the mirror of walkSubType.
func walkSuperType(t DataType, other DataType) bool {
	for ; other != nil; other = other.BaseType() {
		if t.EquivalentTo(other) {
			return true
		}
	}
	return false
}

// =============================================================================
// ScalarType
// =============================================================================

// ScalarType is a named primitive type.
type ScalarType struct {
	name string
	base DataType
}

// NewScalarType creates a scalar type. base may be nil.
func NewScalarType(name string, base DataType) *ScalarType {
	if name == "" {
		panic("types: scalar type name is required")
	}
	return &ScalarType{name: name, base: base}
}

// Name implements DataType.
func (s *ScalarType) Name() string { return s.name }

// BaseType implements DataType.
func (s *ScalarType) BaseType() DataType { return s.base }

// String implements DataType.
func (s *ScalarType) String() string { return s.name }

// EqualTo implements DataType.
func (s *ScalarType) EqualTo(other DataType) bool {
	o, ok := other.(*ScalarType)
	return ok && o.name == s.name
}

// EquivalentTo implements DataType.
func (s *ScalarType) EquivalentTo(other DataType) bool {
	return other != nil && other.Name() == s.name
}

// IsSubType implements DataType.
func (s *ScalarType) IsSubType(other DataType) bool { return walkSubType(s, other) }

// IsSuperType implements DataType.
func (s *ScalarType) IsSuperType(other DataType) bool { return walkSuperType(s, other) }

// =============================================================================
// ListType
// =============================================================================

// ListType is a list of ElementType. Lists have no base type.
type ListType struct {
	ElementType DataType
}

// NewListType creates a list type over element.
func NewListType(element DataType) *ListType {
	if element == nil {
		panic("types: list element type is required")
	}
	return &ListType{ElementType: element}
}

// Name implements DataType.
func (l *ListType) Name() string { return fmt.Sprintf("List<%s>", l.ElementType.Name()) }

// BaseType implements DataType.
func (l *ListType) BaseType() DataType { return nil }

// String implements DataType.
func (l *ListType) String() string { return l.Name() }

// EqualTo implements DataType.
func (l *ListType) EqualTo(other DataType) bool {
	o, ok := other.(*ListType)
	return ok && l.ElementType.EqualTo(o.ElementType)
}

// EquivalentTo implements DataType.
func (l *ListType) EquivalentTo(other DataType) bool {
	o, ok := other.(*ListType)
	return ok && l.ElementType.EquivalentTo(o.ElementType)
}

// IsSubType implements DataType. Lists are covariant in their element type.
func (l *ListType) IsSubType(other DataType) bool {
	o, ok := other.(*ListType)
	return ok && l.ElementType.IsSubType(o.ElementType)
}

// IsSuperType implements DataType.
func (l *ListType) IsSuperType(other DataType) bool { return walkSuperType(l, other) }

// =============================================================================
// IntervalType
// =============================================================================

// IntervalType is an interval over PointType. Its base type is Any.
type IntervalType struct {
	PointType  DataType
	properties []*PropertyDef
}

// NewIntervalType creates an interval type over point and synthesizes its
// boundary properties.
func NewIntervalType(point DataType) *IntervalType {
	if point == nil {
		panic("types: interval point type is required")
	}
	return &IntervalType{
		PointType: point,
		properties: []*PropertyDef{
			{Name: "begin", Type: point},
			{Name: "end", Type: point},
			{Name: "beginOpen", Type: Boolean},
			{Name: "endOpen", Type: Boolean},
			{Name: "low", Type: point},
			{Name: "high", Type: point},
			{Name: "lowClosed", Type: Boolean},
			{Name: "highClosed", Type: Boolean},
		},
	}
}

// Name implements DataType.
func (i *IntervalType) Name() string { return fmt.Sprintf("Interval<%s>", i.PointType.Name()) }

// BaseType implements DataType.
func (i *IntervalType) BaseType() DataType { return Any }

// String implements DataType.
func (i *IntervalType) String() string { return i.Name() }

// Properties returns the synthesized boundary properties.
func (i *IntervalType) Properties() []*PropertyDef { return i.properties }

// EqualTo implements DataType.
func (i *IntervalType) EqualTo(other DataType) bool {
	o, ok := other.(*IntervalType)
	return ok && i.PointType.EqualTo(o.PointType)
}

// EquivalentTo implements DataType.
func (i *IntervalType) EquivalentTo(other DataType) bool {
	o, ok := other.(*IntervalType)
	return ok && i.PointType.EquivalentTo(o.PointType)
}

// IsSubType implements DataType.
func (i *IntervalType) IsSubType(other DataType) bool { return walkSubType(i, other) }

// IsSuperType implements DataType.
func (i *IntervalType) IsSuperType(other DataType) bool { return walkSuperType(i, other) }

// =============================================================================
// ObjectType
// =============================================================================

// PropertyDef is a named, typed property of an object or interval type.
type PropertyDef struct {
	Name string
	Type DataType
}

// String returns "name : Type".
func (p *PropertyDef) String() string {
	return fmt.Sprintf("%s : %s", p.Name, p.Type.Name())
}

// EqualTo reports name and type equality.
func (p *PropertyDef) EqualTo(other *PropertyDef) bool {
	return other != nil && p.Name == other.Name && p.Type.EqualTo(other.Type)
}

// EquivalentTo reports name equality and type equivalence.
func (p *PropertyDef) EquivalentTo(other *PropertyDef) bool {
	return other != nil && p.Name == other.Name && p.Type.EquivalentTo(other.Type)
}

// ObjectType is a named type with an ordered property list.
type ObjectType struct {
	name       string
	base       DataType
	Properties []*PropertyDef
}

// NewObjectType creates an object type. base may be nil.
func NewObjectType(name string, base DataType, properties ...*PropertyDef) *ObjectType {
	if name == "" {
		panic("types: object type name is required")
	}
	return &ObjectType{name: name, base: base, Properties: properties}
}

// Name implements DataType.
func (o *ObjectType) Name() string { return o.name }

// BaseType implements DataType.
func (o *ObjectType) BaseType() DataType { return o.base }

// String implements DataType.
func (o *ObjectType) String() string { return o.name }

// Property returns the property declared directly on o (not inherited)
// whose name matches case-insensitively.
func (o *ObjectType) Property(name string) (*PropertyDef, bool) {
	for _, p := range o.Properties {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// AddProperty appends a property.
func (o *ObjectType) AddProperty(name string, t DataType) *PropertyDef {
	p := &PropertyDef{Name: name, Type: t}
	o.Properties = append(o.Properties, p)
	return p
}

// sortedProperties returns a copy of the property list ordered by name.
func (o *ObjectType) sortedProperties() []*PropertyDef {
	sorted := make([]*PropertyDef, len(o.Properties))
	copy(sorted, o.Properties)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// EqualTo implements DataType.
func (o *ObjectType) EqualTo(other DataType) bool {
	ot, ok := other.(*ObjectType)
	return ok && ot.name == o.name
}

// EquivalentTo implements DataType. Only object types are equivalent to an
// object type: either the names match or both carry the same property
// shape, compared by name after sorting. Two property-less objects share the
// empty shape.
func (o *ObjectType) EquivalentTo(other DataType) bool {
	ot, ok := other.(*ObjectType)
	if !ok || ot == nil {
		return false
	}
	if ot.name == o.name {
		return true
	}
	if len(ot.Properties) != len(o.Properties) {
		return false
	}
	mine, theirs := o.sortedProperties(), ot.sortedProperties()
	for i := range mine {
		if !mine[i].EquivalentTo(theirs[i]) {
			return false
		}
	}
	return true
}

// IsSubType implements DataType.
func (o *ObjectType) IsSubType(other DataType) bool { return walkSubType(o, other) }

// IsSuperType implements DataType.
func (o *ObjectType) IsSuperType(other DataType) bool { return walkSuperType(o, other) }

// Compile-time interface checks.
var (
	_ DataType = (*ScalarType)(nil)
	_ DataType = (*ListType)(nil)
	_ DataType = (*IntervalType)(nil)
	_ DataType = (*ObjectType)(nil)
)
