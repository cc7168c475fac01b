// Package models describes the clinical data models that data requests are
// written against.
//
// Each model package (vmr, fhir) declares native Go structs for its classes.
// Their type descriptors are derived by introspection through a per-run
// types.Resolver.
package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// TypeResolver maps a qualified model type name to a type descriptor.
type TypeResolver interface {
	Resolve(typeName string) (types.DataType, error)
}

// Model describes a data model.
type Model struct {
	// Name is the short name used to qualify type names, e.g. "vmr".
	Name string

	// URI is the model namespace.
	URI string

	// Classes are the native structs of the model, keyed by class name.
	Classes map[string]reflect.Type

	// Natives map native data-type structs onto built-in descriptors.
	Natives map[reflect.Type]types.DataType

	// Operators builds the model's operator module against the run's type
	// resolver. Nil when the model adds no operators.
	Operators func(r *types.Resolver) (operator.Registrar, error)
}

// Qualifiers returns the names type references to this model may be
// qualified with.
func (m *Model) Qualifiers() []string {
	if m.URI == "" || m.URI == m.Name {
		return []string{m.Name}
	}
	return []string{m.Name, m.URI}
}

// ClassNames returns the model's class names (sorted).
func (m *Model) ClassNames() []string {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewTypeResolver returns a resolver for the model's classes backed by r.
// The model's native data types are registered on r.
func (m *Model) NewTypeResolver(r *types.Resolver) TypeResolver {
	for native, t := range m.Natives {
		r.RegisterNative(native, t)
	}
	return &classResolver{model: m, types: r}
}

// Install registers the model on r and returns its type resolver and
// operator module. The registrar is nil when the model has none.
func (m *Model) Install(r *types.Resolver) (TypeResolver, operator.Registrar, error) {
	resolver := m.NewTypeResolver(r)
	if m.Operators == nil {
		return resolver, nil, nil
	}
	reg, err := m.Operators(r)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", m.Name, err)
	}
	return resolver, reg, nil
}

type classResolver struct {
	model *Model
	types *types.Resolver
}

func (c *classResolver) Resolve(typeName string) (types.DataType, error) {
	local := ast.LocalName(typeName)
	for name, native := range c.model.Classes {
		if strings.EqualFold(name, local) {
			return c.types.ResolveType(native)
		}
	}
	return nil, fmt.Errorf("Could not resolve model type for type name %s.", typeName) //nolint:staticcheck // user-facing diagnostic
}

// TypeOf is shorthand for the reflect.Type of T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
