package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/internal/testutil"
	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/adapters/duckdb"
	"github.com/leapstack-labs/leaphed/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
)

// valueView is CREATE VIEW name AS SELECT <e> AS value.
func valueView(name string, e sqlast.Expr) *sqlast.CreateView {
	return &sqlast.CreateView{
		Name:   name,
		Select: &sqlast.SelectStmt{Columns: []sqlast.SelectItem{{Expr: e, Alias: "value"}}},
	}
}

func testBatch() *sqlast.Batch {
	batch := &sqlast.Batch{}
	batch.Add(
		&sqlast.DropView{Name: "Test_Codes", IfExists: true},
		&sqlast.Delete{Table: "ValueSet", Where: sqlast.Binary(
			&sqlast.ColumnRef{Column: "ValueSetName"}, sqlast.OpEq, sqlast.String("Test.Diabetes"))},
		&sqlast.Insert{
			Table:   "ValueSet",
			Columns: []string{"ValueSetName", "Code", "CodeSystem", "Display"},
			Rows: [][]sqlast.Expr{
				{sqlast.String("Test.Diabetes"), sqlast.String("250.00"), sqlast.Null(), sqlast.Null()},
				{sqlast.String("Test.Diabetes"), sqlast.String("250.01"), sqlast.Null(), sqlast.Null()},
			},
		},
		valueView("Test_Codes", &sqlast.SubqueryExpr{Select: &sqlast.SelectStmt{
			Columns: []sqlast.SelectItem{{Expr: &sqlast.FuncCall{Name: "count", Args: []sqlast.Expr{sqlast.Int(1)}}}},
			From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "ValueSet"}},
		}}),
	)
	return batch
}

func connect(t *testing.T, a adapter.Adapter) adapter.Adapter {
	t.Helper()
	require.NoError(t, a.Connect(context.Background(), adapter.Config{}))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func countCodes(t *testing.T, a adapter.Adapter) int {
	t.Helper()
	var n int
	require.NoError(t, a.SQL().QueryRowContext(context.Background(), "SELECT value FROM Test_Codes").Scan(&n))
	return n
}

func TestDeploy(t *testing.T) {
	tests := []struct {
		name       string
		adapter    func(t *testing.T) adapter.Adapter
		migrations []int64
	}{
		{
			name:       "sqlite with goose",
			adapter:    func(t *testing.T) adapter.Adapter { return sqlite.New(testutil.NewTestLogger(t)) },
			migrations: []int64{1},
		},
		{
			name:       "duckdb without goose",
			adapter:    func(t *testing.T) adapter.Adapter { return duckdb.New(testutil.NewTestLogger(t)) },
			migrations: []int64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a := connect(t, tt.adapter(t))
			opts := Options{Logger: testutil.NewTestLogger(t)}

			res, err := Deploy(ctx, a, testBatch(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.migrations, res.Migrations)
			assert.Equal(t, 4, res.Statements)
			assert.Equal(t, 2, countCodes(t, a))

			// A redeploy replaces the codes instead of duplicating them.
			_, err = Deploy(ctx, a, testBatch(), opts)
			require.NoError(t, err)
			assert.Equal(t, 2, countCodes(t, a))

			meta, err := a.GetTableMetadata(ctx, "ValueSet")
			require.NoError(t, err)
			assert.Len(t, meta.Columns, 4)
		})
	}
}

func TestDeploy_GooseRunsOnce(t *testing.T) {
	ctx := context.Background()
	a := connect(t, sqlite.New(nil))

	versions, err := Migrate(ctx, a, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, versions)

	versions, err = Migrate(ctx, a, nil)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestDeploy_Seeds(t *testing.T) {
	ctx := context.Background()
	a := connect(t, sqlite.New(nil))

	path := filepath.Join(t.TempDir(), "problem.csv")
	require.NoError(t, os.WriteFile(path, []byte("problemCode\n250.00\n401.9\n"), 0o600))

	batch := &sqlast.Batch{}
	batch.Add(valueView("Test_Problems", &sqlast.SubqueryExpr{Select: &sqlast.SelectStmt{
		Columns: []sqlast.SelectItem{{Expr: &sqlast.FuncCall{Name: "count", Args: []sqlast.Expr{sqlast.Int(1)}}}},
		From:    &sqlast.FromClause{Source: &sqlast.TableName{Name: "Problem"}},
	}}))

	res, err := Deploy(ctx, a, batch, Options{Seeds: map[string]string{"Problem": path}, SkipMigrations: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Problem"}, res.Seeded)
	assert.Empty(t, res.Migrations)

	var n int
	require.NoError(t, a.SQL().QueryRowContext(ctx, "SELECT value FROM Test_Problems").Scan(&n))
	assert.Equal(t, 2, n)

	_, err = Deploy(ctx, a, batch, Options{Seeds: map[string]string{"Missing": filepath.Join(t.TempDir(), "none.csv")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeding Missing")
}

func TestDeploy_FailedBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	a := connect(t, sqlite.New(nil))

	batch := &sqlast.Batch{}
	batch.Add(
		valueView("Test_Kept", sqlast.Int(1)),
		&sqlast.DropView{Name: "Test_Missing"},
	)

	_, err := Deploy(ctx, a, batch, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deploying batch")

	_, err = a.GetTableMetadata(ctx, "Test_Kept")
	assert.Error(t, err, "the first view is rolled back with the batch")
}

func TestUpStatements(t *testing.T) {
	src := `-- +goose Up
CREATE TABLE a (
    x INT
);
-- comment
CREATE INDEX i ON a (x);

-- +goose Down
DROP TABLE a;
`
	assert.Equal(t, []string{
		"CREATE TABLE a (\n    x INT\n)",
		"CREATE INDEX i ON a (x)",
	}, upStatements(src))
}
