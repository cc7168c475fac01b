package sqlgen

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/leaphed/internal/testutil"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/dialects/ansi"
	"github.com/leapstack-labs/leaphed/pkg/dialects/sqlite"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/sqlwriter"
)

func diabetesArtifact() *artifact.Artifact {
	a := testutil.Artifact("Test",
		testutil.Def("HasDiabetes", testutil.Expr("IsNotEmpty", nil,
			problemRequest(ast.Attrs{"codeProperty": "problemCode"}, diabetesCodes()))),
		testutil.Def("AgeLimit", testutil.Expr("Add", nil,
			testutil.Expr("ParameterRef", ast.Attrs{"name": "MinAge"}),
			testutil.Int("1"))),
	)
	a.ValueSets = []*artifact.ValueSetDef{diabetesValueSet()}
	a.Parameters = []*artifact.ParameterDef{{Name: "MinAge", TypeName: "Integer", Default: testutil.Int("18")}}
	a.Conditions = []*ast.ASTNode{testutil.Named("condition", testutil.Ref("HasDiabetes"))}
	return a
}

func translateArtifact(t *testing.T, a *artifact.Artifact) *sqlast.Batch {
	t.Helper()
	v := newTestVerifier(t)
	diags, err := v.VerifyArtifact(context.Background(), a)
	require.NoError(t, err)
	require.Empty(t, diags.Messages())

	tr := New(Options{Annotations: v.Annotations(), Logger: testutil.NewTestLogger(t)})
	batch, err := tr.TranslateArtifact(context.Background(), a)
	require.NoError(t, err)
	return batch
}

func TestTranslateArtifact_Golden(t *testing.T) {
	batch := translateArtifact(t, diabetesArtifact())

	var buf bytes.Buffer
	require.NoError(t, sqlwriter.NewWriter(sqlite.SQLite).Write(&buf, batch))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden.sql"),
	)
	g.Assert(t, "artifact_sqlite", buf.Bytes())
}

func TestTranslateArtifact_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	exec := func(t *testing.T, stmt string) {
		t.Helper()
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	queryInt := func(t *testing.T, query string) int {
		t.Helper()
		var n int
		require.NoError(t, db.QueryRowContext(ctx, query).Scan(&n), query)
		return n
	}

	exec(t, "CREATE TABLE ValueSet (ValueSetName TEXT NOT NULL, Code TEXT NOT NULL, CodeSystem TEXT, Display TEXT)")
	exec(t, "CREATE TABLE Problem (problemCode TEXT, diagnosticEventTime TEXT)")
	exec(t, "INSERT INTO Problem VALUES ('250.00', '2020-03-01 00:00:00')")

	batch := translateArtifact(t, diabetesArtifact())

	// Deploying twice replaces the views and the value set rows.
	for range 2 {
		for _, stmt := range sqlwriter.Statements(batch, sqlite.SQLite) {
			exec(t, stmt)
		}
	}

	assert.Equal(t, 2, queryInt(t, "SELECT COUNT(*) FROM ValueSet WHERE ValueSetName = 'Test.Diabetes'"))
	assert.Equal(t, 19, queryInt(t, "SELECT value FROM Test_AgeLimit"))
	assert.Equal(t, 1, queryInt(t, "SELECT value FROM Test_HasDiabetes"))
	assert.Equal(t, 1, queryInt(t, "SELECT value FROM Test_Condition1"))

	exec(t, "UPDATE Problem SET problemCode = '401.9'")
	assert.Equal(t, 0, queryInt(t, "SELECT value FROM Test_Condition1"))
}

type orderedLibraries []*artifact.Library

func (l orderedLibraries) Ordered([]artifact.LibraryRef) ([]*artifact.Library, error) {
	return l, nil
}

func TestTranslateArtifact_Libraries(t *testing.T) {
	ctx := context.Background()
	v := newTestVerifier(t)

	common := &artifact.Library{
		Name: "Common",
		Definitions: artifact.Definitions{
			Expressions: []*artifact.ExpressionDef{testutil.Def("Adult", testutil.Int("18"))},
		},
	}
	diags, err := v.VerifyLibrary(ctx, common)
	require.NoError(t, err)
	require.Empty(t, diags)

	a := testutil.Artifact("Test", testutil.Def("One", testutil.Int("1")))
	diags, err = v.VerifyArtifact(ctx, a)
	require.NoError(t, err)
	require.Empty(t, diags)
	a.Libraries = []artifact.LibraryRef{{Name: "Common"}}

	t.Run("libraries first", func(t *testing.T) {
		tr := New(Options{Annotations: v.Annotations(), Libraries: orderedLibraries{common}})
		batch, err := tr.TranslateArtifact(ctx, a)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"DROP VIEW IF EXISTS Test_One",
			"DROP VIEW IF EXISTS Common_Adult",
			"CREATE VIEW Common_Adult AS\nSELECT\n  18 AS value",
			"CREATE VIEW Test_One AS\nSELECT\n  1 AS value",
		}, sqlwriter.Statements(batch, ansi.ANSI))
	})

	t.Run("no library source", func(t *testing.T) {
		_, err := New(Options{Annotations: v.Annotations()}).TranslateArtifact(ctx, a)
		assert.EqualError(t, err, "sqlgen: artifact imports libraries but no library source is configured")
	})
}

func TestTranslateArtifact_ViewCollision(t *testing.T) {
	ctx := context.Background()
	v := newTestVerifier(t)

	shadow := &artifact.Library{
		Name: "Test_A",
		Definitions: artifact.Definitions{
			Expressions: []*artifact.ExpressionDef{testutil.Def("B", testutil.Int("1"))},
		},
	}
	diags, err := v.VerifyLibrary(ctx, shadow)
	require.NoError(t, err)
	require.Empty(t, diags)

	a := testutil.Artifact("Test", testutil.Def("A_B", testutil.Int("2")))
	diags, err = v.VerifyArtifact(ctx, a)
	require.NoError(t, err)
	require.Empty(t, diags)
	a.Libraries = []artifact.LibraryRef{{Name: "Test_A"}}

	tr := New(Options{Annotations: v.Annotations(), Libraries: orderedLibraries{shadow}})
	_, err = tr.TranslateArtifact(ctx, a)

	var collision *ViewCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "Test_A_B", collision.View)
	assert.EqualError(t, err, "definitions Test_A.B and Test.A_B both map to view Test_A_B")
}

func TestTranslateArtifact_Errors(t *testing.T) {
	a := testutil.Artifact("Test", testutil.Def("Total", testutil.Expr("Count", nil,
		testutil.Expr("List", nil, testutil.Int("1"), testutil.Int("2")))))
	v := newTestVerifier(t)
	_, err := v.VerifyArtifact(context.Background(), a)
	require.NoError(t, err)

	_, err = New(Options{Annotations: v.Annotations()}).Translate(context.Background(), a)
	assert.EqualError(t, err, "translating Test.Total: Count translation is not supported.")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestValueSetStatements(t *testing.T) {
	vs := &artifact.ValueSetDef{
		Name:  "Empty",
		Codes: nil,
	}
	stmts := valueSetStatements("Test", vs)
	require.Len(t, stmts, 1)
	assert.Equal(t, "DELETE FROM ValueSet\nWHERE\n  ValueSetName = 'Test.Empty'\n", sqlwriter.Format(stmts[0], ansi.ANSI))

	vs = &artifact.ValueSetDef{Name: "Codes", Codes: []artifact.Code{{Code: "a"}}}
	stmts = valueSetStatements("Test", vs)
	require.Len(t, stmts, 2)
	assert.Equal(t,
		"INSERT INTO ValueSet (ValueSetName, Code, CodeSystem, Display)\nVALUES\n  ('Test.Codes', 'a', NULL, NULL)\n",
		sqlwriter.Format(stmts[1], ansi.ANSI))
}
