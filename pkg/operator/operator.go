// Package operator provides the operator overload table used to resolve
// calls during verification.
//
// Resolution is exact: an overload matches only when every operand type is
// equal to the corresponding signature type. There is no widening or
// nearest-match search, so every legal combination of operand types must be
// registered by some Registrar.
package operator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Signature is the ordered list of operand types of an overload.
type Signature []types.DataType

// String returns the signature as "(A, B)".
func (s Signature) String() string {
	names := make([]string, len(s))
	for i, t := range s {
		if t == nil {
			names[i] = "<unknown>"
			continue
		}
		names[i] = t.Name()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// Equal reports whether both signatures have the same length and pairwise
// equal operand types.
func (s Signature) Equal(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !types.Equal(s[i], other[i]) {
			return false
		}
	}
	return true
}

// Operator is one overload of a named operator.
type Operator struct {
	Name       string
	Signature  Signature
	ResultType types.DataType
}

// New creates an overload.
func New(name string, result types.DataType, operands ...types.DataType) *Operator {
	return &Operator{Name: name, Signature: append(Signature(nil), operands...), ResultType: result}
}

func (o *Operator) String() string {
	return fmt.Sprintf("%s%s: %s", o.Name, o.Signature, o.ResultType.Name())
}

// Registrar contributes a module of overloads.
type Registrar interface {
	// Name identifies the module, e.g. "base" or "fhir".
	Name() string

	// Operators returns the overloads of the module.
	Operators() []*Operator
}

// DuplicateError is returned when an overload's signature is already
// registered under the same name.
type DuplicateError struct {
	Name      string
	Signature Signature
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Signature '%s' is already registered for operator '%s'.", e.Signature, e.Name)
}

// ResolveError is returned when a call cannot be resolved.
type ResolveError struct {
	Name      string
	Signature Signature

	// UnknownName is set when no overload of Name exists at all.
	UnknownName bool
}

func (e *ResolveError) Error() string {
	if e.UnknownName {
		return fmt.Sprintf("Could not resolve call to operator name '%s'.", e.Name)
	}
	return fmt.Sprintf("Could not resolve signature '%s' for operator '%s'.", e.Signature, e.Name)
}

// Registry holds operator overloads by name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string][]*Operator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string][]*Operator)}
}

// Register adds an overload. Registering the same name and signature twice
// is an error.
func (r *Registry) Register(op *Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(op)
}

func (r *Registry) register(op *Operator) error {
	if op.ResultType == nil {
		return fmt.Errorf("operator %s%s has no result type", op.Name, op.Signature)
	}
	if existing := r.find(op.Name, op.Signature); existing != nil {
		return &DuplicateError{Name: op.Name, Signature: op.Signature}
	}
	r.ops[op.Name] = append(r.ops[op.Name], op)
	return nil
}

// Install registers the overloads of each registrar in order. An overload
// that restates one already registered with the same result type is
// skipped; one that conflicts with it is a DuplicateError.
func (r *Registry) Install(registrars ...Registrar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range registrars {
		for _, op := range reg.Operators() {
			if existing := r.find(op.Name, op.Signature); existing != nil {
				if types.Equal(existing.ResultType, op.ResultType) {
					continue
				}
				return fmt.Errorf("installing %s operators: %w", reg.Name(), &DuplicateError{Name: op.Name, Signature: op.Signature})
			}
			if err := r.register(op); err != nil {
				return fmt.Errorf("installing %s operators: %w", reg.Name(), err)
			}
		}
	}
	return nil
}

// ResolveCall returns the overload of name whose signature exactly matches
// the operand types.
func (r *Registry) ResolveCall(name string, operands Signature) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.ops[name]; !ok {
		return nil, &ResolveError{Name: name, Signature: operands, UnknownName: true}
	}
	if op := r.find(name, operands); op != nil {
		return op, nil
	}
	return nil, &ResolveError{Name: name, Signature: operands}
}

// Has reports whether any overload of name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ops[name]
	return ok
}

// Overloads returns the overloads registered under name.
func (r *Registry) Overloads(name string) []*Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Operator(nil), r.ops[name]...)
}

// Names returns the registered operator names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every overload sorted by name, then arity, then signature.
func (r *Registry) All() []*Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*Operator
	for _, ops := range r.ops {
		all = append(all, ops...)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if len(a.Signature) != len(b.Signature) {
			return len(a.Signature) < len(b.Signature)
		}
		return a.Signature.String() < b.Signature.String()
	})
	return all
}

// Len returns the number of registered overloads.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ops := range r.ops {
		n += len(ops)
	}
	return n
}

func (r *Registry) find(name string, sig Signature) *Operator {
	for _, op := range r.ops[name] {
		if op.Signature.Equal(sig) {
			return op
		}
	}
	return nil
}
