package sqlwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
)

// Format formats a statement according to the dialect. The result ends with
// a newline and has no statement terminator.
func Format(stmt sqlast.Stmt, d *dialect.Dialect) string {
	p := newPrinter(d)
	p.formatStmt(stmt)
	return p.String()
}

// FormatExpr formats an expression on a single line.
func FormatExpr(e sqlast.Expr, d *dialect.Dialect) string {
	return newPrinter(d).inlineExpr(e)
}

// Statements formats each statement of a batch for execution.
func Statements(batch *sqlast.Batch, d *dialect.Dialect) []string {
	out := make([]string, 0, len(batch.Statements))
	for _, stmt := range batch.Statements {
		out = append(out, strings.TrimRight(Format(stmt, d), "\n"))
	}
	return out
}

// Script formats a batch as a script: statements are terminated with a
// semicolon, followed by the dialect's batch separator when it has one, and
// separated by a blank line.
func Script(batch *sqlast.Batch, d *dialect.Dialect) string {
	var sb strings.Builder
	for i, stmt := range Statements(batch, d) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(stmt)
		sb.WriteString(";\n")
		if d.BatchSeparator != "" {
			sb.WriteString(d.BatchSeparator)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Writer writes translated batches as SQL scripts. It implements
// translate.Writer.
type Writer struct {
	Dialect *dialect.Dialect
}

// NewWriter creates a writer for the dialect.
func NewWriter(d *dialect.Dialect) *Writer {
	return &Writer{Dialect: d}
}

// Extension implements translate.Writer.
func (w *Writer) Extension() string { return ".sql" }

// Write implements translate.Writer. translated must be a *sqlast.Batch or
// a single sqlast.Stmt.
func (w *Writer) Write(out io.Writer, translated any) error {
	if w.Dialect == nil {
		return dialect.ErrDialectRequired
	}
	var batch *sqlast.Batch
	switch t := translated.(type) {
	case *sqlast.Batch:
		batch = t
	case sqlast.Stmt:
		batch = &sqlast.Batch{Statements: []sqlast.Stmt{t}}
	default:
		return fmt.Errorf("sqlwriter: cannot write %T", translated)
	}
	_, err := io.WriteString(out, Script(batch, w.Dialect))
	return err
}

var _ translate.Writer = (*Writer)(nil)
