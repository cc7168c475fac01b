// Package sqlwriter renders sqlast trees as SQL text for a dialect.
package sqlwriter

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

const indentSize = 2

// Printer handles SQL formatting with proper indentation and style.
//
// An inline printer writes everything on one line; it renders the arguments
// of dialect function templates.
type Printer struct {
	dialect      *dialect.Dialect
	output       *bytes.Buffer
	depth        int
	atLineStart  bool
	inline       bool
	pendingSpace bool
}

func newPrinter(d *dialect.Dialect) *Printer {
	return &Printer{
		dialect:     d,
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

func newInlinePrinter(d *dialect.Dialect) *Printer {
	p := newPrinter(d)
	p.inline = true
	p.atLineStart = false
	return p
}

// String returns the formatted output.
func (p *Printer) String() string {
	if p.inline {
		return p.output.String()
	}
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *Printer) write(s string) {
	if s == "" {
		return
	}
	if p.pendingSpace {
		p.pendingSpace = false
		if s[0] != ')' && !p.lastByteIs('(') {
			p.output.WriteByte(' ')
		}
	}
	if p.atLineStart && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) lastByteIs(c byte) bool {
	b := p.output.Bytes()
	return len(b) > 0 && b[len(b)-1] == c
}

func (p *Printer) writeln() {
	if p.inline {
		p.pendingSpace = p.output.Len() > 0
		return
	}
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) keyword(s string) {
	p.write(strings.ToUpper(s))
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	if p.pendingSpace {
		return
	}
	p.output.WriteByte(' ')
}

func (p *Printer) ident(name string) {
	p.write(p.dialect.QuoteIdentifierIfNeeded(name))
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			}
		}
	}
}

// inlineExpr renders e on a single line.
func (p *Printer) inlineExpr(e sqlast.Expr) string {
	sub := newInlinePrinter(p.dialect)
	sub.formatExpr(e)
	return sub.String()
}
