package sqlwriter

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/dialects/ansi"
	"github.com/leapstack-labs/leaphed/pkg/dialects/sqlite"
	"github.com/leapstack-labs/leaphed/pkg/dialects/tsql"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

func col(table, column string) *sqlast.ColumnRef {
	return &sqlast.ColumnRef{Table: table, Column: column}
}

func eq(left, right sqlast.Expr) sqlast.Expr {
	return sqlast.Binary(left, sqlast.OpEq, right)
}

func problems() *sqlast.FromClause {
	return &sqlast.FromClause{Source: &sqlast.TableName{Name: "Problem", Alias: "T"}}
}

func diabetesBatch() *sqlast.Batch {
	batch := &sqlast.Batch{}
	batch.Add(
		&sqlast.DropView{Name: "Diabetes_HasCondition", IfExists: true},
		&sqlast.CreateView{
			Name: "Diabetes_HasCondition",
			Select: &sqlast.SelectStmt{
				Columns: []sqlast.SelectItem{{
					Expr: &sqlast.CaseExpr{
						Whens: []sqlast.WhenClause{{
							Condition: &sqlast.ExistsExpr{Select: &sqlast.SelectStmt{
								From: problems(),
								Where: sqlast.And(
									eq(col("T", "problemCode"), sqlast.String("250.00")),
									&sqlast.IsNullExpr{Expr: col("T", "resolutionDate")},
								),
							}},
							Result: sqlast.Int(1),
						}},
						Else: sqlast.Int(0),
					},
					Alias: "value",
				}},
			},
		},
		&sqlast.CreateView{
			Name: "Diabetes_LastOnset",
			Select: &sqlast.SelectStmt{
				Top: 1,
				Columns: []sqlast.SelectItem{{
					Expr:  sqlast.Func(dialect.FnDateAdd, col("T", "onsetDate"), sqlast.Int(1), &sqlast.Unit{Name: "year"}),
					Alias: "value",
				}},
				From: problems(),
				Where: sqlast.Binary(
					sqlast.Func(dialect.FnDateDiff, &sqlast.Unit{Name: "year"}, col("T", "onsetDate"), sqlast.Func(dialect.FnToday)),
					sqlast.OpLt,
					sqlast.Int(5),
				),
				OrderBy: []sqlast.OrderByItem{{Expr: col("T", "onsetDate"), Desc: true}},
			},
		},
		&sqlast.Delete{
			Table: "ValueSet",
			Where: eq(col("", "ValueSetName"), sqlast.String("Diabetes.Codes")),
		},
		&sqlast.Insert{
			Table:   "ValueSet",
			Columns: []string{"ValueSetName", "Code", "CodeSystem", "Display"},
			Rows: [][]sqlast.Expr{
				{sqlast.String("Diabetes.Codes"), sqlast.String("250.00"), sqlast.String("2.16.840.1.113883.6.103"), sqlast.String("Diabetes mellitus")},
				{sqlast.String("Diabetes.Codes"), sqlast.String("250.01"), sqlast.String("2.16.840.1.113883.6.103"), sqlast.String("Type 1 diabetes, patient's")},
			},
		},
	)
	return batch
}

func TestWriter_Golden(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dialect.Dialect
	}{
		{"script_sqlite", sqlite.SQLite},
		{"script_tsql", tsql.TSQL},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden.sql"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(tt.dialect)
			require.NoError(t, w.Write(&buf, diabetesBatch()))
			assert.Equal(t, ".sql", w.Extension())
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, (&Writer{}).Write(&buf, diabetesBatch()), dialect.ErrDialectRequired)
	assert.Error(t, NewWriter(ansi.ANSI).Write(&buf, "not sql"))

	require.NoError(t, NewWriter(ansi.ANSI).Write(&buf, &sqlast.DropView{Name: "v"}))
	assert.Equal(t, "DROP VIEW v;\n", buf.String())
}

func TestFormatExpr(t *testing.T) {
	a, b, c := col("", "a"), col("", "b"), col("", "c")

	tests := []struct {
		name    string
		dialect *dialect.Dialect
		expr    sqlast.Expr
		want    string
	}{
		{
			name: "lower precedence left operand",
			expr: sqlast.Binary(sqlast.Binary(a, sqlast.OpAdd, b), sqlast.OpMul, c),
			want: "(a + b) * c",
		},
		{
			name: "non-associative right operand",
			expr: sqlast.Binary(a, sqlast.OpSub, sqlast.Binary(b, sqlast.OpSub, c)),
			want: "a - (b - c)",
		},
		{
			name: "left associative chain",
			expr: sqlast.Binary(sqlast.Binary(a, sqlast.OpSub, b), sqlast.OpSub, c),
			want: "a - b - c",
		},
		{
			name: "or inside and",
			expr: sqlast.Binary(sqlast.Binary(a, sqlast.OpOr, b), sqlast.OpAnd, c),
			want: "(a OR b) AND c",
		},
		{
			name: "not of conjunction",
			expr: sqlast.Not(sqlast.And(eq(a, sqlast.Int(1)), eq(b, sqlast.Int(2)))),
			want: "NOT (a = 1 AND b = 2)",
		},
		{
			name: "comparison inside is null",
			expr: &sqlast.IsNullExpr{Expr: eq(a, b), Not: true},
			want: "(a = b) IS NOT NULL",
		},
		{
			name: "between",
			expr: &sqlast.BetweenExpr{Expr: a, Low: sqlast.Int(1), High: sqlast.Int(5)},
			want: "a BETWEEN 1 AND 5",
		},
		{
			name: "in list",
			expr: &sqlast.InExpr{Expr: a, Values: []sqlast.Expr{sqlast.Int(1), sqlast.Int(2)}},
			want: "a IN (1, 2)",
		},
		{
			name: "string escape",
			expr: sqlast.String("it's"),
			want: "'it''s'",
		},
		{
			name: "null",
			expr: sqlast.Null(),
			want: "NULL",
		},
		{
			name: "reserved column",
			expr: col("T", "order"),
			want: `T."order"`,
		},
		{
			name: "member and index",
			expr: &sqlast.IndexExpr{Expr: &sqlast.MemberExpr{Expr: col("T", "codes"), Name: "items"}, Index: sqlast.Int(0)},
			want: "T.codes.items[0]",
		},
		{
			name: "exists on one line",
			expr: &sqlast.ExistsExpr{Not: true, Select: &sqlast.SelectStmt{From: &sqlast.FromClause{Source: &sqlast.TableName{Name: "t"}}}},
			want: "NOT EXISTS (SELECT * FROM t)",
		},
		{
			name: "case on one line",
			expr: &sqlast.CaseExpr{Whens: []sqlast.WhenClause{{Condition: a, Result: sqlast.Int(1)}}, Else: sqlast.Int(0)},
			want: "CASE WHEN a THEN 1 ELSE 0 END",
		},
		{
			name:    "sqlite concat",
			dialect: sqlite.SQLite,
			expr:    sqlast.Binary(sqlast.String("a"), sqlast.OpConcat, c),
			want:    "'a' || c",
		},
		{
			name:    "tsql concat",
			dialect: tsql.TSQL,
			expr:    sqlast.Binary(sqlast.String("a"), sqlast.OpConcat, c),
			want:    "'a' + c",
		},
		{
			name:    "template",
			dialect: tsql.TSQL,
			expr:    sqlast.Func(dialect.FnIfNull, sqlast.Binary(a, sqlast.OpAdd, b), sqlast.Int(0)),
			want:    "ISNULL(a + b, 0)",
		},
		{
			name: "plain call",
			expr: sqlast.Func("soundex", a),
			want: "soundex(a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if d == nil {
				d = ansi.ANSI
			}
			assert.Equal(t, tt.want, FormatExpr(tt.expr, d))
		})
	}
}

func TestFormat_BreaksLongConditions(t *testing.T) {
	a, b, c := col("", "a"), col("", "b"), col("", "c")
	stmt := &sqlast.Delete{
		Table: "t",
		Where: sqlast.And(eq(a, sqlast.Int(1)), eq(b, sqlast.Int(2)), eq(c, sqlast.Int(3))),
	}

	expected := `DELETE FROM t
WHERE
  a = 1
  AND b = 2
  AND c = 3
`
	assert.Equal(t, expected, Format(stmt, ansi.ANSI))
	assert.Equal(t, []string{"DELETE FROM t\nWHERE\n  a = 1\n  AND b = 2\n  AND c = 3"},
		Statements(&sqlast.Batch{Statements: []sqlast.Stmt{stmt}}, ansi.ANSI))
}

func TestFormat_RowLimitStyles(t *testing.T) {
	stmt := &sqlast.CreateView{
		Name: "First_Problem",
		Select: &sqlast.SelectStmt{
			Top:     1,
			Columns: []sqlast.SelectItem{{Expr: col("T", "problemCode"), Alias: "value"}},
			From:    problems(),
		},
	}

	assert.Contains(t, Format(stmt, ansi.ANSI), "\nFETCH FIRST 1 ROWS ONLY\n")
	assert.Contains(t, Format(stmt, sqlite.SQLite), "\nLIMIT 1\n")
	assert.Contains(t, Format(stmt, tsql.TSQL), "SELECT TOP 1\n")
}
