// Package sqlast defines the relational statement and expression trees the
// SQL backend produces. Trees carry no dialect; pkg/sqlwriter renders them
// for a given dialect.
package sqlast

// Node is the base interface for all SQL nodes.
type Node interface {
	sqlNode()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for FROM sources.
type TableRef interface {
	Node
	tableRefNode()
}

// ---------- Statements ----------

// SelectStmt is a single SELECT.
type SelectStmt struct {
	Distinct bool
	// Top limits the number of rows when positive. Dialects render it as
	// TOP or LIMIT.
	Top     int
	Columns []SelectItem // empty selects *
	From    *FromClause
	Where   Expr
	OrderBy []OrderByItem
}

func (*SelectStmt) sqlNode()  {}
func (*SelectStmt) stmtNode() {}

// SelectItem is one output column.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// FromClause holds the single source of a SELECT.
type FromClause struct {
	Source TableRef
}

// OrderByItem is one ORDER BY key.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// CreateView is CREATE VIEW name AS select.
type CreateView struct {
	Name   string
	Select *SelectStmt
}

func (*CreateView) sqlNode()  {}
func (*CreateView) stmtNode() {}

// DropView is DROP VIEW [IF EXISTS] name.
type DropView struct {
	Name     string
	IfExists bool
}

func (*DropView) sqlNode()  {}
func (*DropView) stmtNode() {}

// Insert is a multi-row INSERT ... VALUES.
type Insert struct {
	Table   string
	Columns []string
	Rows    [][]Expr
}

func (*Insert) sqlNode()  {}
func (*Insert) stmtNode() {}

// Delete is DELETE FROM table [WHERE ...].
type Delete struct {
	Table string
	Where Expr
}

func (*Delete) sqlNode()  {}
func (*Delete) stmtNode() {}

// Batch is an ordered list of statements executed together.
type Batch struct {
	Statements []Stmt
}

// Add appends statements to the batch.
func (b *Batch) Add(stmts ...Stmt) {
	b.Statements = append(b.Statements, stmts...)
}

// ---------- Table references ----------

// TableName is a named table or view.
type TableName struct {
	Schema string
	Name   string
	Alias  string
}

func (*TableName) sqlNode()      {}
func (*TableName) tableRefNode() {}

// DerivedTable is a subquery in FROM.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) sqlNode()      {}
func (*DerivedTable) tableRefNode() {}
