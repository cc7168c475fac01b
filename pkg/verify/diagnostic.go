package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/ast"
)

// Diagnostic is a verification message. Errors invalidate the artifact;
// warnings do not.
type Diagnostic struct {
	Message   string
	Line      int
	Column    int
	IsWarning bool

	// Library names the library the message was raised in, when it was
	// merged from an imported library.
	Library string

	err error
}

// Errorf returns a hard diagnostic with a formatted message. Verifiers may
// return it directly; the dispatcher adds the node position when it is
// missing.
func Errorf(format string, args ...any) *Diagnostic {
	return &Diagnostic{Message: fmt.Sprintf(format, args...)}
}

// Warningf returns a warning diagnostic with a formatted message.
func Warningf(format string, args ...any) *Diagnostic {
	return &Diagnostic{Message: fmt.Sprintf(format, args...), IsWarning: true}
}

// Wrap returns a hard diagnostic with msg that unwraps to err.
func Wrap(err error, msg string) *Diagnostic {
	return &Diagnostic{Message: msg, err: err}
}

// Pos returns the source position of the diagnostic.
func (d *Diagnostic) Pos() ast.Position {
	return ast.Position{Line: d.Line, Column: d.Column}
}

// Error implements error.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	if d.Library != "" {
		sb.WriteString(d.Library)
		sb.WriteString(": ")
	}
	if d.Line > 0 {
		fmt.Fprintf(&sb, "%d,%d: ", d.Line, d.Column)
	}
	sb.WriteString(d.Message)
	return sb.String()
}

func (d *Diagnostic) Unwrap() error { return d.err }

// Severity returns "warning" or "error".
func (d *Diagnostic) Severity() string {
	if d.IsWarning {
		return "warning"
	}
	return "error"
}

// diagnosticAt converts err raised while verifying n into a diagnostic.
func diagnosticAt(err error, n *ast.Node) *Diagnostic {
	var d *Diagnostic
	if errors.As(err, &d) {
		c := *d
		if c.Line == 0 && n != nil {
			c.Line, c.Column = n.Line, n.LinePos
		}
		return &c
	}
	d = &Diagnostic{Message: err.Error(), err: err}
	if n != nil {
		d.Line, d.Column = n.Line, n.LinePos
	}
	return d
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []*Diagnostic

// HasErrors reports whether any diagnostic is a hard error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if !d.IsWarning {
			return true
		}
	}
	return false
}

// Errors returns the hard errors.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if !d.IsWarning {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warnings.
func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.IsWarning {
			out = append(out, d)
		}
	}
	return out
}

// InLibrary returns copies of ds attributed to library. Messages that
// already carry a library keep it.
func (ds Diagnostics) InLibrary(library string) Diagnostics {
	out := make(Diagnostics, 0, len(ds))
	for _, d := range ds {
		c := *d
		if c.Library == "" {
			c.Library = library
		}
		out = append(out, &c)
	}
	return out
}

// Messages returns the formatted messages.
func (ds Diagnostics) Messages() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Error()
	}
	return out
}
