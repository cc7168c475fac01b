package sqlast

import "strconv"

// Op is a SQL operator.
type Op string

// Operators. OpConcat is rendered with the dialect's concatenation operator.
const (
	OpOr     Op = "OR"
	OpAnd    Op = "AND"
	OpNot    Op = "NOT"
	OpEq     Op = "="
	OpNe     Op = "<>"
	OpLt     Op = "<"
	OpLe     Op = "<="
	OpGt     Op = ">"
	OpGe     Op = ">="
	OpAdd    Op = "+"
	OpSub    Op = "-"
	OpConcat Op = "||"
	OpMul    Op = "*"
	OpDiv    Op = "/"
	OpMod    Op = "%"
	OpNeg    Op = "-"
)

// Precedence returns the binding strength of a binary operator. Higher binds
// tighter. Predicates such as IN, BETWEEN and IS NULL bind like comparisons.
func (o Op) Precedence() int {
	switch o {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpNot:
		return 3
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return 4
	case OpAdd, OpSub, OpConcat:
		return 5
	case OpMul, OpDiv, OpMod:
		return 6
	default:
		return 7
	}
}

// IsLogical reports whether o is AND or OR.
func (o Op) IsLogical() bool { return o == OpAnd || o == OpOr }

// ColumnRef is a possibly qualified column.
type ColumnRef struct {
	Table  string
	Column string
}

func (*ColumnRef) sqlNode()  {}
func (*ColumnRef) exprNode() {}

// MemberExpr accesses a member of a structured value.
type MemberExpr struct {
	Expr Expr
	Name string
}

func (*MemberExpr) sqlNode()  {}
func (*MemberExpr) exprNode() {}

// IndexExpr indexes into a collection value.
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

func (*IndexExpr) sqlNode()  {}
func (*IndexExpr) exprNode() {}

// LiteralType is the kind of a literal.
type LiteralType int

// Literal kinds.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralNull
)

// Literal is a constant.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) sqlNode()  {}
func (*Literal) exprNode() {}

// Number returns a numeric literal.
func Number(v string) *Literal { return &Literal{Type: LiteralNumber, Value: v} }

// Int returns an integer literal.
func Int(v int) *Literal { return Number(strconv.Itoa(v)) }

// String returns a string literal. v is unescaped.
func String(v string) *Literal { return &Literal{Type: LiteralString, Value: v} }

// Null returns NULL.
func Null() *Literal { return &Literal{Type: LiteralNull} }

// BinaryExpr is left op right.
type BinaryExpr struct {
	Left  Expr
	Op    Op
	Right Expr
}

func (*BinaryExpr) sqlNode()  {}
func (*BinaryExpr) exprNode() {}

// Binary returns left op right.
func Binary(left Expr, op Op, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// And folds predicates with AND, skipping nils. It returns nil when every
// predicate is nil.
func And(preds ...Expr) Expr {
	var out Expr
	for _, p := range preds {
		if p == nil {
			continue
		}
		if out == nil {
			out = p
			continue
		}
		out = Binary(out, OpAnd, p)
	}
	return out
}

// UnaryExpr is op expr.
type UnaryExpr struct {
	Op   Op
	Expr Expr
}

func (*UnaryExpr) sqlNode()  {}
func (*UnaryExpr) exprNode() {}

// Not returns NOT e.
func Not(e Expr) *UnaryExpr { return &UnaryExpr{Op: OpNot, Expr: e} }

// CaseExpr is a searched or simple CASE.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) sqlNode()  {}
func (*CaseExpr) exprNode() {}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) sqlNode()  {}
func (*IsNullExpr) exprNode() {}

// BetweenExpr is expr BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Low  Expr
	High Expr
}

func (*BetweenExpr) sqlNode()  {}
func (*BetweenExpr) exprNode() {}

// InExpr is expr IN (values).
type InExpr struct {
	Expr   Expr
	Values []Expr
}

func (*InExpr) sqlNode()  {}
func (*InExpr) exprNode() {}

// ExistsExpr is [NOT] EXISTS (select).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) sqlNode()  {}
func (*ExistsExpr) exprNode() {}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) sqlNode()  {}
func (*SubqueryExpr) exprNode() {}

// FuncCall calls a function. When the dialect defines a template for Name
// the template is rendered instead of a plain call.
type FuncCall struct {
	Name string
	Args []Expr
}

func (*FuncCall) sqlNode()  {}
func (*FuncCall) exprNode() {}

// Func returns a call of name.
func Func(name string, args ...Expr) *FuncCall { return &FuncCall{Name: name, Args: args} }

// Unit is a date part such as year or day, rendered by the dialect.
type Unit struct {
	Name string
}

func (*Unit) sqlNode()  {}
func (*Unit) exprNode() {}

// ListExpr is a parenthesized list of values.
type ListExpr struct {
	Items []Expr
}

func (*ListExpr) sqlNode()  {}
func (*ListExpr) exprNode() {}

// Ident is a bare identifier, such as a table used as a relation value.
type Ident struct {
	Name string
}

func (*Ident) sqlNode()  {}
func (*Ident) exprNode() {}
