package sqlwriter

import (
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

const complexityThreshold = 5

// Binding strength of the non-binary forms, matching sqlast.Op.Precedence.
const (
	precedencePredicate = 4
	precedenceUnary     = 7
	precedenceAtom      = 8
)

func (p *Printer) formatExpr(e sqlast.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *sqlast.Literal:
		p.formatLiteral(expr)
	case *sqlast.ColumnRef:
		p.formatColumnRef(expr)
	case *sqlast.MemberExpr:
		p.formatOperand(expr.Expr, precedenceAtom)
		p.write(".")
		p.ident(expr.Name)
	case *sqlast.IndexExpr:
		p.formatOperand(expr.Expr, precedenceAtom)
		p.write("[")
		p.formatExpr(expr.Index)
		p.write("]")
	case *sqlast.BinaryExpr:
		p.formatBinaryExpr(expr)
	case *sqlast.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *sqlast.FuncCall:
		p.formatFuncCall(expr)
	case *sqlast.CaseExpr:
		p.formatCaseExpr(expr)
	case *sqlast.InExpr:
		p.formatInExpr(expr)
	case *sqlast.BetweenExpr:
		p.formatBetweenExpr(expr)
	case *sqlast.IsNullExpr:
		p.formatIsNullExpr(expr)
	case *sqlast.SubqueryExpr:
		p.formatSubqueryExpr(expr)
	case *sqlast.ExistsExpr:
		p.formatExistsExpr(expr)
	case *sqlast.Unit:
		p.write(p.dialect.Unit(expr.Name))
	case *sqlast.ListExpr:
		p.write("(")
		p.formatList(len(expr.Items), func(i int) { p.formatExpr(expr.Items[i]) }, ", ", false)
		p.write(")")
	case *sqlast.Ident:
		p.ident(expr.Name)
	}
}

func precedence(e sqlast.Expr) int {
	switch expr := e.(type) {
	case *sqlast.BinaryExpr:
		return expr.Op.Precedence()
	case *sqlast.UnaryExpr:
		if expr.Op == sqlast.OpNot {
			return sqlast.OpNot.Precedence()
		}
		return precedenceUnary
	case *sqlast.IsNullExpr, *sqlast.BetweenExpr, *sqlast.InExpr:
		return precedencePredicate
	default:
		return precedenceAtom
	}
}

// formatOperand parenthesizes e when it binds looser than minPrecedence.
func (p *Printer) formatOperand(e sqlast.Expr, minPrecedence int) {
	if precedence(e) < minPrecedence {
		p.write("(")
		p.formatExpr(e)
		p.write(")")
		return
	}
	p.formatExpr(e)
}

func (p *Printer) exprComplexity(e sqlast.Expr) int {
	if e == nil {
		return 0
	}

	switch expr := e.(type) {
	case *sqlast.Literal, *sqlast.ColumnRef, *sqlast.Unit, *sqlast.Ident:
		return 1
	case *sqlast.BinaryExpr:
		return 1 + p.exprComplexity(expr.Left) + p.exprComplexity(expr.Right)
	case *sqlast.UnaryExpr:
		return 1 + p.exprComplexity(expr.Expr)
	case *sqlast.MemberExpr:
		return 1 + p.exprComplexity(expr.Expr)
	case *sqlast.FuncCall:
		score := 2
		for _, arg := range expr.Args {
			score += p.exprComplexity(arg)
		}
		return score
	case *sqlast.CaseExpr:
		score := 2
		for _, w := range expr.Whens {
			score += p.exprComplexity(w.Condition) + p.exprComplexity(w.Result)
		}
		return score
	case *sqlast.ExistsExpr, *sqlast.SubqueryExpr:
		return complexityThreshold
	default:
		return 1
	}
}

func isAssociative(op sqlast.Op) bool {
	switch op {
	case sqlast.OpAnd, sqlast.OpOr, sqlast.OpAdd, sqlast.OpMul, sqlast.OpConcat:
		return true
	}
	return false
}

func (p *Printer) formatLiteral(lit *sqlast.Literal) {
	switch lit.Type {
	case sqlast.LiteralString:
		p.write("'")
		p.write(strings.ReplaceAll(lit.Value, "'", "''"))
		p.write("'")
	case sqlast.LiteralNull:
		p.keyword("null")
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) formatColumnRef(col *sqlast.ColumnRef) {
	if col.Table != "" {
		p.ident(col.Table)
		p.write(".")
	}
	p.ident(col.Column)
}

func (p *Printer) formatBinaryExpr(expr *sqlast.BinaryExpr) {
	shouldBreak := p.exprComplexity(expr) > complexityThreshold && expr.Op.IsLogical()

	prec := expr.Op.Precedence()
	leftMin, rightMin := prec, prec+1
	if isAssociative(expr.Op) {
		rightMin = prec
	}
	if prec == precedencePredicate {
		leftMin = prec + 1
	}

	p.formatOperand(expr.Left, leftMin)

	if shouldBreak {
		p.writeln()
	} else {
		p.space()
	}
	p.write(p.operator(expr.Op))
	p.space()

	p.formatOperand(expr.Right, rightMin)
}

func (p *Printer) operator(op sqlast.Op) string {
	if op == sqlast.OpConcat {
		return p.dialect.Concat
	}
	return string(op)
}

func (p *Printer) formatUnaryExpr(expr *sqlast.UnaryExpr) {
	if expr.Op == sqlast.OpNot {
		p.keyword("not")
		p.space()
		p.formatOperand(expr.Expr, sqlast.OpNot.Precedence())
		return
	}
	p.write(string(expr.Op))
	p.formatOperand(expr.Expr, precedenceUnary)
}

func (p *Printer) formatFuncCall(fn *sqlast.FuncCall) {
	if render, ok := p.dialect.Function(fn.Name); ok {
		args := make([]string, len(fn.Args))
		for i, arg := range fn.Args {
			args[i] = p.inlineExpr(arg)
		}
		p.write(render(args))
		return
	}

	p.write(fn.Name)
	p.write("(")
	p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ", ", false)
	p.write(")")
}

func (p *Printer) formatCaseExpr(c *sqlast.CaseExpr) {
	p.keyword("case")

	if c.Operand != nil {
		p.space()
		p.formatExpr(c.Operand)
	}

	p.writeln()
	p.indent()

	for _, w := range c.Whens {
		p.keyword("when")
		p.space()
		p.formatExpr(w.Condition)
		p.space()
		p.keyword("then")
		p.space()
		p.formatExpr(w.Result)
		p.writeln()
	}

	if c.Else != nil {
		p.keyword("else")
		p.space()
		p.formatExpr(c.Else)
		p.writeln()
	}

	p.dedent()
	p.keyword("end")
}

func (p *Printer) formatInExpr(in *sqlast.InExpr) {
	p.formatOperand(in.Expr, precedencePredicate+1)
	p.space()
	p.keyword("in")
	p.write(" (")
	p.formatList(len(in.Values), func(i int) { p.formatExpr(in.Values[i]) }, ", ", false)
	p.write(")")
}

func (p *Printer) formatBetweenExpr(b *sqlast.BetweenExpr) {
	p.formatOperand(b.Expr, precedencePredicate+1)
	p.space()
	p.keyword("between")
	p.space()
	p.formatOperand(b.Low, precedencePredicate+1)
	p.space()
	p.keyword("and")
	p.space()
	p.formatOperand(b.High, precedencePredicate+1)
}

func (p *Printer) formatIsNullExpr(is *sqlast.IsNullExpr) {
	p.formatOperand(is.Expr, precedencePredicate+1)
	p.space()
	p.keyword("is")
	if is.Not {
		p.space()
		p.keyword("not")
	}
	p.space()
	p.keyword("null")
}

func (p *Printer) formatSubqueryExpr(sq *sqlast.SubqueryExpr) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(sq.Select)
	p.dedent()
	p.write(")")
}

func (p *Printer) formatExistsExpr(ex *sqlast.ExistsExpr) {
	if ex.Not {
		p.keyword("not")
		p.space()
	}
	p.keyword("exists")
	p.write(" (")
	p.writeln()
	p.indent()
	p.formatSelectStmt(ex.Select)
	p.dedent()
	p.write(")")
}
