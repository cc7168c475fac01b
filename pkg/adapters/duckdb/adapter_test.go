package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
)

func connect(t *testing.T, cfg adapter.Config) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func queryString(t *testing.T, adp *Adapter, query string) string {
	t.Helper()
	var s string
	require.NoError(t, adp.SQL().QueryRowContext(context.Background(), query).Scan(&s), query)
	return s
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		adp := connect(t, adapter.Config{Path: ":memory:"})
		assert.True(t, adp.IsConnected())
	})

	t.Run("file-based", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deploy.duckdb")
		connect(t, adapter.Config{Path: path})
		_, err := os.Stat(path)
		assert.NoError(t, err, "database file was not created")
	})

	t.Run("settings", func(t *testing.T) {
		adp := connect(t, adapter.Config{Params: map[string]any{"settings": map[string]any{"threads": "2"}}})
		assert.Equal(t, "2", queryString(t, adp, "SELECT current_setting('threads')"))
	})

	t.Run("invalid params", func(t *testing.T) {
		err := New(nil).Connect(context.Background(), adapter.Config{Params: map[string]any{"bogus": 1}})
		assert.Error(t, err)
	})
}

func TestAdapter_Registered(t *testing.T) {
	adp, err := adapter.NewAdapter(adapter.Config{Type: "duckdb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", adp.Dialect().GetName())
	_, migrates := adp.(adapter.Migrator)
	assert.False(t, migrates)
}

func TestAdapter_DeployViews(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{})

	require.NoError(t, adp.ExecBatch(ctx, []string{
		"CREATE TABLE ValueSet (ValueSetName VARCHAR NOT NULL, Code VARCHAR NOT NULL, CodeSystem VARCHAR, Display VARCHAR)",
		"CREATE TABLE Problem (problemCode VARCHAR)",
		"INSERT INTO ValueSet VALUES ('Test.Diabetes', '250.00', NULL, NULL)",
		"INSERT INTO Problem VALUES ('250.00'), ('401.9')",
		`CREATE VIEW Test_Diabetic AS SELECT COUNT(*) AS value FROM Problem T
		 WHERE EXISTS (SELECT * FROM ValueSet VS WHERE VS.ValueSetName = 'Test.Diabetes' AND T.problemCode = VS.Code)`,
	}))
	assert.Equal(t, "1", queryString(t, adp, "SELECT CAST(value AS VARCHAR) FROM Test_Diabetic"))

	meta, err := adp.GetTableMetadata(ctx, "ValueSet")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(1), meta.RowCount)
	require.Len(t, meta.Columns, 4)
	assert.Equal(t, "ValueSetName", meta.Columns[0].Name)
	assert.Equal(t, "VARCHAR", meta.Columns[0].Type)
	assert.False(t, meta.Columns[0].Nullable)

	_, err = adp.GetTableMetadata(ctx, "missing")
	assert.EqualError(t, err, "table missing not found")
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{})

	path := filepath.Join(t.TempDir(), "encounters.csv")
	require.NoError(t, os.WriteFile(path, []byte("encounterType,encounterEventTime\nAMB,2024-01-01\nIMP,2024-02-01\nAMB,2024-03-01\n"), 0o600))

	require.NoError(t, adp.LoadCSV(ctx, "EncounterEvent", path))

	meta, err := adp.GetTableMetadata(ctx, "EncounterEvent")
	require.NoError(t, err)
	assert.Len(t, meta.Columns, 2)
	assert.Equal(t, int64(3), meta.RowCount)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.ExecBatch(ctx, []string{"SELECT 1"}), adapter.ErrNotConnected)
	_, err := adp.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.LoadCSV(ctx, "t", "t.csv"), adapter.ErrNotConnected)
	assert.NoError(t, adp.Close())
}
