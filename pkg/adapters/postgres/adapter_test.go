package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name:     "defaults",
			config:   adapter.Config{Database: "registry"},
			expected: "host=localhost port=5432 dbname=registry sslmode=disable",
		},
		{
			name: "credentials and sslmode",
			config: adapter.Config{
				Host:     "cds.example.org",
				Port:     5433,
				Database: "cds",
				Username: "deployer",
				Password: "s3cret",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=cds.example.org port=5433 dbname=cds sslmode=require user=deployer password=s3cret",
		},
		{
			name:     "quoted values",
			config:   adapter.Config{Database: "cds", Password: `it's a pass\word`},
			expected: `host=localhost port=5432 dbname=cds sslmode=disable password='it\'s a pass\\word'`,
		},
		{
			name:     "empty database",
			config:   adapter.Config{},
			expected: "host=localhost port=5432 dbname='' sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestConnConfig(t *testing.T) {
	cfg, params, err := connConfig(adapter.Config{
		Host:     "cds.example.org",
		Database: "cds",
		Username: "deployer",
		Password: "it's",
		Schema:   "rules",
		Params: map[string]any{
			"application_name":  "leaphed",
			"statement_timeout": "30s",
			"max_conns":         "4",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "cds.example.org", cfg.Host)
	assert.Equal(t, uint16(5432), cfg.Port)
	assert.Equal(t, "deployer", cfg.User)
	assert.Equal(t, "it's", cfg.Password)
	assert.Equal(t, "rules", cfg.RuntimeParams["search_path"])
	assert.Equal(t, "leaphed", cfg.RuntimeParams["application_name"])
	assert.Equal(t, "30s", cfg.RuntimeParams["statement_timeout"])
	assert.Equal(t, 4, params.MaxConns)

	_, _, err = connConfig(adapter.Config{Params: map[string]any{"pool": 3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid postgres params")
}

func TestCreateTextTableSQL(t *testing.T) {
	assert.Equal(t, []string{
		`DROP TABLE IF EXISTS "problem"`,
		`CREATE TABLE "problem" ("problemcode" TEXT, "onset_date" TEXT, "user" TEXT)`,
	}, createTextTableSQL("Problem", []string{"problemCode", "onset date", "user"}))

	assert.Equal(t, `"clinical"."problem"`, identifier("clinical.Problem"))
}

func TestSanitizeColumn(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"code", "code"},
		{" display name ", "display_name"},
		{"effective-time", "effective_time"},
		{"value(raw)", "value_raw_"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeColumn(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.Dialect().GetName())
	assert.Equal(t, "postgres", adp.GooseDialect())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.ExecBatch(ctx, []string{"SELECT 1"}), adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.LoadCSV(ctx, "problem", "problem.csv"), adapter.ErrNotConnected)
	_, err := adp.GetTableMetadata(ctx, "ValueSet")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "postgres"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Adapter{}, adp)
}
