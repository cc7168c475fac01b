package types

import (
	"errors"
	"fmt"
	"strings"
)

// Property resolution errors.
var (
	ErrUnresolvedProperty = errors.New("could not resolve property")
	ErrBadIndexer         = errors.New("badly formed property indexer expression")
	ErrNotIndexable       = errors.New("property is not a list type")
)

// PropertyError describes a failed property resolution. It matches one of
// the property resolution errors with errors.Is.
type PropertyError struct {
	Err  error
	Path string
	// Name is the offending segment.
	Name string
	// Type is the type the segment was resolved against, if any.
	Type DataType
}

func (e *PropertyError) Error() string {
	switch e.Err {
	case ErrBadIndexer:
		return fmt.Sprintf("Badly formed property indexer expression: '%s'", e.Name)
	case ErrNotIndexable:
		return fmt.Sprintf("Could not index into property '%s' of type '%s' because it is not a list type.", e.Name, typeName(e.Type))
	}
	switch e.Type.(type) {
	case *IntervalType:
		return fmt.Sprintf("Could not resolve property name '%s' on interval type '%s'.", e.Name, e.Type.Name())
	case *ObjectType:
		return fmt.Sprintf("Could not resolve property name '%s'.", e.Name)
	}
	return fmt.Sprintf("Could not resolve property path '%s'.", e.Path)
}

func (e *PropertyError) Unwrap() error { return e.Err }

func typeName(t DataType) string {
	if t == nil {
		return "<unknown>"
	}
	return t.Name()
}

// ResolveProperty resolves a dotted property path against t.
//
// Each segment is matched case-insensitively against the current type's
// properties, walking the base type chain of object types. A segment may
// carry an indexer suffix ("coding[1]"), in which case the property must be
// a list and the segment resolves to its element type.
func ResolveProperty(t DataType, path string) (DataType, error) {
	current := t
	for _, segment := range SplitPath(path) {
		name, indexed, ok := splitIndexer(segment)
		if !ok {
			return nil, &PropertyError{Err: ErrBadIndexer, Path: path, Name: segment}
		}

		var prop *PropertyDef
		switch ct := current.(type) {
		case *IntervalType:
			prop = findProperty(ct.Properties(), name)
			if prop == nil {
				return nil, &PropertyError{Err: ErrUnresolvedProperty, Path: path, Name: name, Type: ct}
			}
		case *ObjectType:
			prop = lookupObjectProperty(ct, name)
			if prop == nil {
				return nil, &PropertyError{Err: ErrUnresolvedProperty, Path: path, Name: name, Type: ct}
			}
		default:
			return nil, &PropertyError{Err: ErrUnresolvedProperty, Path: path, Name: name, Type: current}
		}

		current = prop.Type
		if indexed {
			list, ok := current.(*ListType)
			if !ok {
				return nil, &PropertyError{Err: ErrNotIndexable, Path: path, Name: name, Type: current}
			}
			current = list.ElementType
		}
	}
	return current, nil
}

// LookupProperty finds a property on an object type or one of its ancestors.
func LookupProperty(t DataType, name string) (*PropertyDef, bool) {
	switch ct := t.(type) {
	case *ObjectType:
		p := lookupObjectProperty(ct, name)
		return p, p != nil
	case *IntervalType:
		p := findProperty(ct.Properties(), name)
		return p, p != nil
	}
	return nil, false
}

func lookupObjectProperty(o *ObjectType, name string) *PropertyDef {
	for current := o; current != nil; {
		if p := findProperty(current.Properties, name); p != nil {
			return p
		}
		base, ok := current.BaseType().(*ObjectType)
		if !ok {
			break
		}
		current = base
	}
	return nil
}

func findProperty(props []*PropertyDef, name string) *PropertyDef {
	for _, p := range props {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// AllProperties returns the properties of o including inherited ones,
// ancestors first.
func AllProperties(o *ObjectType) []*PropertyDef {
	var chain []*ObjectType
	for current := o; current != nil; {
		chain = append(chain, current)
		base, ok := current.BaseType().(*ObjectType)
		if !ok {
			break
		}
		current = base
	}
	var props []*PropertyDef
	for i := len(chain) - 1; i >= 0; i-- {
		props = append(props, chain[i].Properties...)
	}
	return props
}

// SplitPath splits a property path on dots that are not inside an indexer.
func SplitPath(path string) []string {
	var segments []string
	depth, start := 0, 0
	for i, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				segments = append(segments, path[start:i])
				start = i + 1
			}
		}
	}
	return append(segments, path[start:])
}

// splitIndexer strips a trailing "[...]" from segment. It reports false when
// the indexer is not closed.
func splitIndexer(segment string) (name string, indexed, ok bool) {
	left := strings.IndexByte(segment, '[')
	if left < 1 {
		return segment, false, true
	}
	right := strings.LastIndexByte(segment, ']')
	if right <= left {
		return "", false, false
	}
	return segment[:left], true, true
}
