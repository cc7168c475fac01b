package ast

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leapstack-labs/leaphed/pkg/types"
)

// ErrAlreadyAnnotated is returned when a result type is assigned twice.
var ErrAlreadyAnnotated = errors.New("result type already assigned")

// Annotation is what verification learned about one expression node.
type Annotation struct {
	// ResultType is the type the expression evaluates to.
	ResultType types.DataType

	// SourceType is the type a property access was resolved against.
	SourceType types.DataType
}

// Annotations pairs expression nodes with their verification results.
// The tree itself is never modified.
type Annotations struct {
	mu sync.RWMutex
	m  map[*ASTNode]*Annotation
}

// NewAnnotations creates an empty side table.
func NewAnnotations() *Annotations {
	return &Annotations{m: make(map[*ASTNode]*Annotation)}
}

// Get returns the annotation for n.
func (a *Annotations) Get(n *ASTNode) (Annotation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ann, ok := a.m[n]
	if !ok {
		return Annotation{}, false
	}
	return *ann, true
}

// ResultType returns the result type of n, or nil when n has not been
// verified.
func (a *Annotations) ResultType(n *ASTNode) types.DataType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if ann, ok := a.m[n]; ok {
		return ann.ResultType
	}
	return nil
}

// HasResultType reports whether n has been assigned a result type.
func (a *Annotations) HasResultType(n *ASTNode) bool {
	return a.ResultType(n) != nil
}

// SetResultType assigns the result type of n. A node is assigned at most once.
func (a *Annotations) SetResultType(n *ASTNode, t types.DataType) error {
	if t == nil {
		return fmt.Errorf("result type for %s must not be nil", n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ann := a.entry(n)
	if ann.ResultType != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyAnnotated, n)
	}
	ann.ResultType = t
	return nil
}

// SourceType returns the type a property node was resolved against.
func (a *Annotations) SourceType(n *ASTNode) types.DataType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if ann, ok := a.m[n]; ok {
		return ann.SourceType
	}
	return nil
}

// SetSourceType records the type a property node was resolved against.
func (a *Annotations) SetSourceType(n *ASTNode, t types.DataType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entry(n).SourceType = t
}

// Len returns the number of annotated nodes.
func (a *Annotations) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.m)
}

func (a *Annotations) entry(n *ASTNode) *Annotation {
	ann, ok := a.m[n]
	if !ok {
		ann = &Annotation{}
		a.m[n] = ann
	}
	return ann
}
