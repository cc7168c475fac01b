package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/internal/deploy"
	"github.com/leapstack-labs/leaphed/internal/state"
	"github.com/leapstack-labs/leaphed/internal/testutil"
	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/dialects/ansi"
	"github.com/leapstack-labs/leaphed/pkg/sqlgen"
	"github.com/leapstack-labs/leaphed/pkg/sqlwriter"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	e := newTestEngine(t, Config{})
	assert.Len(t, e.models, len(ModelNames()))

	e = newTestEngine(t, Config{Models: []string{"VMR"}})
	assert.Len(t, e.models, 1)

	_, err := New(Config{Models: []string{"qdm"}})
	var unknown *UnknownModelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "qdm", unknown.Name)
	assert.EqualError(t, err, `unknown model "qdm" (available: fhir, vmr)`)
}

func TestModelNames(t *testing.T) {
	assert.Equal(t, []string{"fhir", "vmr"}, ModelNames())
	assert.True(t, IsKnownModel("FHIR"))
	assert.False(t, IsKnownModel("qdm"))
}

func TestEngine_VerifyFile(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	res, err := e.VerifyFile(ctx, testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics.Messages())
	assert.False(t, res.HasErrors())
	assert.Equal(t, "Screening", res.Artifact.Name())
	assert.Empty(t, res.RunID)

	libs := res.Libraries()
	require.Len(t, libs, 1)
	assert.Equal(t, "Common", libs[0].Name)
}

func TestEngine_LogsVerification(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	e := newTestEngine(t, Config{Logger: logger})

	_, err := e.VerifyFile(context.Background(), testutil.ArtifactPath("invalid.yaml"))
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "initializing engine")
	assert.Contains(t, out, `msg="artifact verified" artifact=Broken errors=`)
	assert.NotContains(t, out, "errors=0 ")
}

func TestEngine_VerifyFile_Invalid(t *testing.T) {
	e := newTestEngine(t, Config{})

	res, err := e.VerifyFile(context.Background(), testutil.ArtifactPath("invalid.yaml"))
	require.NoError(t, err)
	assert.True(t, res.HasErrors())
	require.NotEmpty(t, res.Diagnostics.Errors())
	assert.Contains(t, res.Diagnostics.Errors()[0].Message, "Missing")

	_, err = e.Translate(context.Background(), res)
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.EqualError(t, err, "Broken: artifact has verification errors")
}

func TestEngine_VerifyFile_NotFound(t *testing.T) {
	e := newTestEngine(t, Config{})
	_, err := e.VerifyFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_LibraryDir(t *testing.T) {
	ctx := context.Background()
	a, err := artifact.ReadArtifactFile(testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	a.Libraries[0].Path = ""

	t.Run("configured directory", func(t *testing.T) {
		e := newTestEngine(t, Config{LibraryDir: testutil.ArtifactsDir()})
		res, err := e.Verify(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, res.Diagnostics.Messages())
	})

	t.Run("library missing", func(t *testing.T) {
		e := newTestEngine(t, Config{LibraryDir: t.TempDir()})
		res, err := e.Verify(ctx, a)
		if err == nil {
			assert.True(t, res.HasErrors())
		}
	})
}

func TestEngine_UnknownModelReference(t *testing.T) {
	e := newTestEngine(t, Config{Models: []string{"fhir"}})

	res, err := e.VerifyFile(context.Background(), testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	var messages []string
	for _, d := range res.Diagnostics.Errors() {
		messages = append(messages, d.Message)
	}
	assert.Contains(t, messages, "Could not resolve model vmr.")
}

func TestEngine_Translate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	res, err := e.VerifyFile(ctx, testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)

	batch, err := e.Translate(ctx, res)
	require.NoError(t, err)

	stmts := sqlwriter.Statements(batch, ansi.ANSI)
	assert.Contains(t, stmts, "DROP VIEW IF EXISTS Common_Adult")
	assert.Contains(t, stmts, "CREATE VIEW Common_Adult AS\nSELECT\n  18 AS value")
	assert.Contains(t, stmts, "DELETE FROM ValueSet\nWHERE\n  ValueSetName = 'Screening.Diabetes'")

	// Library views are created before the artifact views that use them.
	index := func(stmt string) int {
		for i, s := range stmts {
			if s == stmt {
				return i
			}
		}
		t.Fatalf("statement not found: %s", stmt)
		return -1
	}
	assert.Less(t,
		index("CREATE VIEW Common_Adult AS\nSELECT\n  18 AS value"),
		index("CREATE VIEW Screening_AgeLimit AS\nSELECT\n  (\n    SELECT\n      value\n    FROM Common_Adult\n  ) + 1 AS value"))
}

func TestEngine_TranslateWithMapping(t *testing.T) {
	ctx := context.Background()
	mapping, err := sqlgen.DecodeMapping(map[string]any{
		"tables": map[string]any{
			"Problem": map[string]any{
				"table":   "problems",
				"columns": map[string]any{"problemCode": "code"},
			},
		},
	})
	require.NoError(t, err)
	e := newTestEngine(t, Config{Mapping: mapping})

	res, err := e.VerifyFile(ctx, testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	batch, err := e.Translate(ctx, res)
	require.NoError(t, err)

	script := sqlwriter.Script(batch, ansi.ANSI)
	assert.Contains(t, script, "FROM problems T")
	assert.Contains(t, script, "T.code = VS.Code")
}

func TestEngine_RecordsRuns(t *testing.T) {
	ctx := context.Background()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(ctx, ":memory:"))
	t.Cleanup(func() { _ = store.Close() })

	e := newTestEngine(t, Config{Store: store})

	ok, err := e.VerifyFile(ctx, testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, ok.RunID)

	bad, err := e.VerifyFile(ctx, testutil.ArtifactPath("invalid.yaml"))
	require.NoError(t, err)

	run, err := store.GetRun(ctx, ok.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.Equal(t, "Screening", run.Artifact)
	assert.Equal(t, testutil.ArtifactPath("diabetes.yaml"), run.Source)

	run, err = store.GetRun(ctx, bad.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusFailed, run.Status)
	assert.Equal(t, len(bad.Diagnostics.Errors()), run.ErrorCount)

	diags, err := store.RunDiagnostics(ctx, bad.RunID)
	require.NoError(t, err)
	assert.Len(t, diags, len(bad.Diagnostics))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestEngine_Deploy(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})

	db := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, db.Connect(ctx, adapter.Config{}))
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Exec(ctx, "CREATE TABLE Problem (problemCode TEXT)"))
	require.NoError(t, db.Exec(ctx, "INSERT INTO Problem VALUES ('250.01')"))

	res, err := e.VerifyFile(ctx, testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)

	for range 2 {
		out, err := e.Deploy(ctx, res, db, deploy.Options{})
		require.NoError(t, err)
		assert.Positive(t, out.Statements)
	}

	var value int
	require.NoError(t, db.SQL().QueryRowContext(ctx, "SELECT value FROM Screening_Condition1").Scan(&value))
	assert.Equal(t, 1, value)
	require.NoError(t, db.SQL().QueryRowContext(ctx, "SELECT value FROM Screening_AgeLimit").Scan(&value))
	assert.Equal(t, 19, value)
	require.NoError(t, db.SQL().QueryRowContext(ctx, "SELECT COUNT(*) FROM ValueSet").Scan(&value))
	assert.Equal(t, 2, value)
}

func TestEngine_DeployRejectsErrors(t *testing.T) {
	e := newTestEngine(t, Config{})
	res := &Result{
		Artifact: testutil.Artifact("Broken", testutil.Def("X", testutil.Int("1"))),
	}
	res.Diagnostics = append(res.Diagnostics, &verify.Diagnostic{Message: "Could not resolve identifier X."})

	_, err := e.Deploy(context.Background(), res, nil, deploy.Options{})
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestEngine_Operators(t *testing.T) {
	e := newTestEngine(t, Config{Models: []string{"vmr"}})
	ops, err := e.Operators()
	require.NoError(t, err)
	require.NotEmpty(t, ops)

	names := make(map[string]bool)
	for _, op := range ops {
		names[op.Name] = true
	}
	assert.True(t, names["Add"])
	assert.True(t, names["IsNotEmpty"])
}

// Engine results keep the annotations the translator needs.
func TestEngine_ResultAnnotations(t *testing.T) {
	e := newTestEngine(t, Config{})
	a := testutil.Artifact("Small", testutil.Def("One", testutil.Int("1")))

	res, err := e.Verify(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, res.annotations)

	def, ok := a.Expression("One")
	require.True(t, ok)
	typ := res.annotations.ResultType(def.Expression)
	require.NotNil(t, typ)
	assert.Equal(t, "Integer", typ.Name())
}
