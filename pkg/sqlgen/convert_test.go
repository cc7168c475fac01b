package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/dialects/ansi"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/sqlwriter"
)

func TestPromoteDemote(t *testing.T) {
	a := &sqlast.ColumnRef{Column: "a"}
	pred := sqlast.Binary(a, sqlast.OpGt, sqlast.Int(1))

	tests := []struct {
		name string
		got  sqlast.Expr
		want string
	}{
		{"promote predicate", promote(pred), "CASE WHEN a > 1 THEN 1 ELSE 0 END"},
		{"promote true", promote(sqlast.Binary(sqlast.Int(1), sqlast.OpEq, sqlast.Int(1))), "1"},
		{"promote false", promote(sqlast.Binary(sqlast.Int(1), sqlast.OpEq, sqlast.Int(0))), "0"},
		{"promote value", promote(a), "a"},
		{"demote value", demote(a), "a = 1"},
		{"demote predicate", demote(pred), "a > 1"},
		{"demote promoted", demote(promote(pred)), "a > 1"},
		{"promote exists", promote(&sqlast.ExistsExpr{Select: selectAll(&sqlast.TableName{Name: "t"})}), "CASE WHEN EXISTS (SELECT * FROM t) THEN 1 ELSE 0 END"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlwriter.FormatExpr(tt.got, ansi.ANSI))
		})
	}
}

func TestRelation(t *testing.T) {
	sel, err := relation(sqlast.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  1 AS value\n", sqlwriter.Format(sel, ansi.ANSI))

	table := &sqlast.TableName{Name: "Test_List"}
	sel, err = relation(table)
	require.NoError(t, err)
	assert.Same(t, table, sel.From.Source)

	ref, err := tableRef(table, "X")
	require.NoError(t, err)
	assert.Equal(t, &sqlast.TableName{Name: "Test_List", Alias: "X"}, ref)
	assert.Empty(t, table.Alias, "the original table name is not modified")

	_, err = relation(aliasRef{name: "P"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		qualifier string
		want      string
		wantErr   string
	}{
		{name: "column", path: "code", want: "code"},
		{name: "qualified", path: "code", qualifier: "T", want: "T.code"},
		{name: "members", path: "problemCode.code", qualifier: "T", want: "T.problemCode.code"},
		{name: "integer index", path: "codes[1].code", qualifier: "T", want: "T.codes[1].code"},
		{name: "path index", path: "entries[position]", qualifier: "T", want: "T.entries[T.position]"},
		{name: "nested index", path: "a[b[0]]", want: "a[b[0]]"},
		{name: "empty", path: "", wantErr: "sqlgen: empty property path"},
		{name: "unmatched bracket", path: "a[0", wantErr: `sqlgen: could not determine matching bracket index in "a[0"`},
		{name: "leading indexer", path: "[0]", wantErr: `sqlgen: indexer without a member in "[0]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePath(tt.path, tt.qualifier)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sqlwriter.FormatExpr(got, ansi.ANSI))
		})
	}
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "Test_HasDiabetes", ObjectName("Test", "HasDiabetes"))
	assert.Equal(t, "org_example_Common_Adult", ObjectName("org.example.Common", "Adult"))
	assert.Equal(t, "Common.Diabetes", ValueSetName("Common", "Diabetes"))
}
