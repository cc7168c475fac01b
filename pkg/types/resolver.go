package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// tagName is the struct tag consulted when introspecting native model types.
//
//	Field  string `hed:"name"`     // property name override
//	Field  string `hed:"-"`        // ignored
//	Value  Choice `hed:",choice"`  // one property per field of Choice
const tagName = "hed"

// Enumeration marks a named native type whose values are coded values.
// Enumerations resolve to Code.
type Enumeration interface {
	Enumeration() string
}

var (
	enumerationType = reflect.TypeOf((*Enumeration)(nil)).Elem()
	timeType        = reflect.TypeOf(time.Time{})
)

// ErrUnsupportedNativeType is returned for native types with no descriptor
// mapping (maps, channels, functions).
var ErrUnsupportedNativeType = errors.New("unsupported native type")

// Resolver builds and caches type descriptors for native Go model types.
//
// Descriptors are cached by type name. An object type is cached before its
// properties are resolved, so self-referencing and mutually referencing
// model types resolve to the same instance.
type Resolver struct {
	mu     sync.RWMutex
	byName map[string]DataType
	native map[reflect.Type]DataType
}

// NewResolver creates a resolver pre-seeded with the built-in types.
func NewResolver() *Resolver {
	r := &Resolver{
		byName: make(map[string]DataType),
		native: make(map[reflect.Type]DataType),
	}
	for name, t := range builtins {
		r.byName[name] = t
	}
	return r
}

// RegisterNative maps a native type directly onto a descriptor.
// Model packages use this for their data-type structs (codes, quantities).
func (r *Resolver) RegisterNative(native reflect.Type, t DataType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.native[indirect(native)] = t
}

// Register adds a named descriptor.
func (r *Resolver) Register(t DataType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(t.Name())] = t
}

// Lookup returns a descriptor by (case-insensitive) name, including
// List<T> and Interval<T> forms over known names.
func (r *Resolver) Lookup(name string) (DataType, bool) {
	if t, ok := Builtin(name); ok {
		return t, true
	}
	name = strings.TrimSpace(name)
	if inner, ok := genericArg(name, "List"); ok {
		elem, ok := r.Lookup(inner)
		if !ok {
			return nil, false
		}
		return NewListType(elem), true
	}
	if inner, ok := genericArg(name, "Interval"); ok {
		point, ok := r.Lookup(inner)
		if !ok {
			return nil, false
		}
		return NewIntervalType(point), true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}

// ResolveValue resolves the descriptor for the dynamic type of v.
func (r *Resolver) ResolveValue(v any) (DataType, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot resolve type of nil value")
	}
	return r.ResolveType(reflect.TypeOf(v))
}

// ResolveType returns the descriptor for a native type.
func (r *Resolver) ResolveType(native reflect.Type) (DataType, error) {
	if native == nil {
		return nil, fmt.Errorf("native type is required")
	}
	native = indirect(native)

	r.mu.RLock()
	mapped, ok := r.native[native]
	r.mu.RUnlock()
	if ok {
		return mapped, nil
	}

	switch {
	case native == timeType:
		return DateTime, nil
	case native.Implements(enumerationType) || reflect.PointerTo(native).Implements(enumerationType):
		return Code, nil
	}

	switch native.Kind() {
	case reflect.Bool:
		return Boolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer, nil
	case reflect.Float32, reflect.Float64:
		return Decimal, nil
	case reflect.String:
		return String, nil
	case reflect.Interface:
		return Any, nil
	case reflect.Slice, reflect.Array:
		elem, err := r.ResolveType(native.Elem())
		if err != nil {
			return nil, err
		}
		return NewListType(elem), nil
	case reflect.Struct:
		return r.resolveStruct(native)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNativeType, native)
	}
}

func (r *Resolver) cached(name string) (DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[strings.ToLower(name)]
	return t, ok
}

func (r *Resolver) resolveStruct(native reflect.Type) (DataType, error) {
	name := native.Name()
	if name == "" {
		return nil, fmt.Errorf("%w: anonymous struct", ErrUnsupportedNativeType)
	}
	if t, ok := r.cached(name); ok {
		return t, nil
	}

	var base DataType
	if embedded, ok := embeddedBase(native); ok {
		resolved, err := r.ResolveType(embedded.Type)
		if err != nil {
			return nil, fmt.Errorf("resolving base of %s: %w", name, err)
		}
		if _, isObject := resolved.(*ObjectType); isObject {
			base = resolved
		}
	}

	// Resolving the base may have resolved this type through a property.
	if t, ok := r.cached(name); ok {
		return t, nil
	}

	object := NewObjectType(name, base)
	r.mu.Lock()
	r.byName[strings.ToLower(name)] = object
	r.mu.Unlock()

	props, err := r.resolveFields(native)
	if err != nil {
		r.mu.Lock()
		delete(r.byName, strings.ToLower(name))
		r.mu.Unlock()
		return nil, err
	}
	object.Properties = props
	return object, nil
}

func (r *Resolver) resolveFields(native reflect.Type) ([]*PropertyDef, error) {
	var props []*PropertyDef
	baseField, hasBase := embeddedBase(native)
	for i := 0; i < native.NumField(); i++ {
		field := native.Field(i)
		if hasBase && field.Index[0] == baseField.Index[0] {
			continue
		}
		if !field.IsExported() {
			continue
		}
		name, choice, skip := parseTag(field)
		if skip {
			continue
		}

		if choice && indirect(field.Type).Kind() == reflect.Struct {
			alternatives := indirect(field.Type)
			for j := 0; j < alternatives.NumField(); j++ {
				alt := alternatives.Field(j)
				if !alt.IsExported() {
					continue
				}
				altName, _, altSkip := parseTag(alt)
				if altSkip {
					continue
				}
				t, err := r.ResolveType(alt.Type)
				if err != nil {
					return nil, fmt.Errorf("resolving choice %s.%s: %w", native.Name(), altName, err)
				}
				props = append(props, &PropertyDef{Name: altName, Type: t})
			}
			continue
		}

		t, err := r.ResolveType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("resolving property %s.%s: %w", native.Name(), name, err)
		}
		props = append(props, &PropertyDef{Name: name, Type: t})
	}
	return props, nil
}

// embeddedBase returns the first embedded struct field, which plays the
// role of the base type.
func embeddedBase(native reflect.Type) (reflect.StructField, bool) {
	for i := 0; i < native.NumField(); i++ {
		field := native.Field(i)
		if field.Anonymous && indirect(field.Type).Kind() == reflect.Struct && indirect(field.Type) != timeType {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func parseTag(field reflect.StructField) (name string, choice, skip bool) {
	tag := field.Tag.Get(tagName)
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "choice" {
			choice = true
		}
	}
	if name == "" {
		name = lowerFirst(field.Name)
	}
	return name, choice, false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
