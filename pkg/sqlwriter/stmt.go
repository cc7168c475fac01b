package sqlwriter

import (
	"strconv"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

func (p *Printer) formatStmt(stmt sqlast.Stmt) {
	switch s := stmt.(type) {
	case *sqlast.SelectStmt:
		p.formatSelectStmt(s)
	case *sqlast.CreateView:
		p.formatCreateView(s)
	case *sqlast.DropView:
		p.formatDropView(s)
	case *sqlast.Insert:
		p.formatInsert(s)
	case *sqlast.Delete:
		p.formatDelete(s)
	}
}

func (p *Printer) formatSelectStmt(stmt *sqlast.SelectStmt) {
	if stmt == nil {
		return
	}

	top := stmt.Top > 0 && p.dialect.Limit == dialect.TopClause

	// SELECT [DISTINCT] [TOP n]
	p.keyword("select")
	if stmt.Distinct {
		p.space()
		p.keyword("distinct")
	}
	if top {
		p.space()
		p.keyword("top")
		p.space()
		p.write(strconv.Itoa(stmt.Top))
	}
	p.writeln()

	// Columns
	p.indent()
	if len(stmt.Columns) == 0 {
		p.write("*")
	}
	p.formatList(len(stmt.Columns), func(i int) { p.formatSelectItem(stmt.Columns[i]) }, ",", true)
	p.writeln()
	p.dedent()

	// FROM
	if stmt.From != nil {
		p.keyword("from")
		p.space()
		p.formatTableRef(stmt.From.Source)
		p.writeln()
	}

	if stmt.Where != nil {
		p.formatWhere(stmt.Where)
	}

	if len(stmt.OrderBy) > 0 {
		p.keyword("order by")
		p.writeln()
		p.indent()
		p.formatList(len(stmt.OrderBy), func(i int) { p.formatOrderByItem(stmt.OrderBy[i]) }, ",", true)
		p.writeln()
		p.dedent()
	}

	if stmt.Top > 0 && !top {
		if p.dialect.Limit == dialect.FetchFirstClause {
			p.keyword("fetch first")
			p.space()
			p.write(strconv.Itoa(stmt.Top))
			p.space()
			p.keyword("rows only")
		} else {
			p.keyword("limit")
			p.space()
			p.write(strconv.Itoa(stmt.Top))
		}
		p.writeln()
	}
}

func (p *Printer) formatWhere(cond sqlast.Expr) {
	p.keyword("where")
	p.writeln()
	p.indent()
	p.formatExpr(cond)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatSelectItem(item sqlast.SelectItem) {
	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.keyword("as")
		p.space()
		p.ident(item.Alias)
	}
}

func (p *Printer) formatOrderByItem(item sqlast.OrderByItem) {
	p.formatExpr(item.Expr)
	if item.Desc {
		p.space()
		p.keyword("desc")
	}
}

func (p *Printer) formatTableRef(ref sqlast.TableRef) {
	switch t := ref.(type) {
	case *sqlast.TableName:
		p.formatTableName(t)
	case *sqlast.DerivedTable:
		p.formatDerivedTable(t)
	}
}

func (p *Printer) formatTableName(t *sqlast.TableName) {
	if t.Schema != "" {
		p.ident(t.Schema)
		p.write(".")
	}
	p.ident(t.Name)
	if t.Alias != "" {
		p.space()
		p.ident(t.Alias)
	}
}

func (p *Printer) formatDerivedTable(t *sqlast.DerivedTable) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(t.Select)
	p.dedent()
	p.write(")")
	if t.Alias != "" {
		p.space()
		p.ident(t.Alias)
	}
}

func (p *Printer) formatCreateView(v *sqlast.CreateView) {
	p.keyword("create view")
	p.space()
	p.ident(v.Name)
	p.space()
	p.keyword("as")
	p.writeln()
	p.formatSelectStmt(v.Select)
}

func (p *Printer) formatDropView(v *sqlast.DropView) {
	p.keyword("drop view")
	if v.IfExists {
		p.space()
		p.keyword("if exists")
	}
	p.space()
	p.ident(v.Name)
	p.writeln()
}

func (p *Printer) formatInsert(ins *sqlast.Insert) {
	p.keyword("insert into")
	p.space()
	p.ident(ins.Table)
	if len(ins.Columns) > 0 {
		p.write(" (")
		p.formatList(len(ins.Columns), func(i int) { p.ident(ins.Columns[i]) }, ", ", false)
		p.write(")")
	}
	p.writeln()

	p.keyword("values")
	p.writeln()
	p.indent()
	p.formatList(len(ins.Rows), func(i int) {
		row := ins.Rows[i]
		p.write("(")
		p.formatList(len(row), func(j int) { p.formatExpr(row[j]) }, ", ", false)
		p.write(")")
	}, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatDelete(del *sqlast.Delete) {
	p.keyword("delete from")
	p.space()
	p.ident(del.Table)
	p.writeln()
	if del.Where != nil {
		p.formatWhere(del.Where)
	}
}
