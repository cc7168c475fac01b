// Package sqlgen translates verified expression trees into relational
// queries.
//
// Every expression definition becomes a view. Booleans are stored as 1 and
// 0: a predicate used as a value is promoted with CASE WHEN p THEN 1 ELSE 0
// END, and a boolean value used as a predicate is demoted with "= 1".
// Lists are relations; scalars read from a view come back through a
// single-column "value" subquery.
package sqlgen

import (
	"context"
	"errors"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/translate"
)

// ValueSetTable holds the codes of every translated value set.
const ValueSetTable = "ValueSet"

// ValueColumn is the column of single-valued views.
const ValueColumn = "value"

var errNoState = errors.New("sqlgen: translation context has no SQL state")

// State is the SQL backend state of a translation run.
type State struct {
	// Scope qualifies unqualified references: the artifact or library whose
	// definitions are being translated.
	Scope string

	queryDepth int
}

func (s *State) enterQuerySource() { s.queryDepth++ }

func (s *State) leaveQuerySource() {
	if s.queryDepth > 0 {
		s.queryDepth--
	}
}

// inQuerySource reports whether the node being translated is the source of
// a query, where a bare table is enough.
func (s *State) inQuerySource() bool { return s.queryDepth > 0 }

// NewContext creates a translation context carrying SQL state for scope.
func NewContext(ctx context.Context, opts translate.Options, scope string) *translate.Context {
	opts.State = &State{Scope: scope}
	return translate.NewContext(ctx, opts)
}

func stateOf(c *translate.Context) (*State, error) {
	s, ok := c.State().(*State)
	if !ok || s == nil {
		return nil, errNoState
	}
	return s, nil
}

// ObjectName returns the database object name of a definition in scope.
// Dots become underscores, so distinct scopes can collide; the artifact
// translator reports such collisions.
func ObjectName(scope, name string) string {
	return strings.ReplaceAll(scope+"."+name, ".", "_")
}
