package adapter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/dialects/ansi"
)

func TestBaseSQLAdapter_ConnectionState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	base := &BaseSQLAdapter{DB: db}
	assert.True(t, base.IsConnected())
	assert.Same(t, db, base.SQL())

	require.NoError(t, base.Close())
	assert.False(t, base.IsConnected())
	assert.Nil(t, base.SQL())
	assert.NoError(t, base.Close(), "closing twice is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = base.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		execErr error
		errMsg  string
	}{
		{
			name: "drop view",
			stmt: "DROP VIEW IF EXISTS Screening_AgeLimit",
		},
		{
			name: "multi-line view",
			stmt: "CREATE VIEW Screening_AgeLimit AS\nSELECT 19 AS value",
		},
		{
			name:    "value set refresh fails",
			stmt:    "DELETE FROM ValueSet WHERE ValueSetName = 'Screening.Diabetes'",
			execErr: assert.AnError,
			errMsg:  "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			exp := mock.ExpectExec(regexp.QuoteMeta(tt.stmt))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			base := &BaseSQLAdapter{DB: db}
			err = base.Exec(context.Background(), tt.stmt)
			if tt.errMsg != "" {
				require.ErrorIs(t, err, tt.execErr)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("without connection", func(t *testing.T) {
		err := (&BaseSQLAdapter{}).Exec(context.Background(), "DROP VIEW IF EXISTS Screening_AgeLimit")
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestBaseSQLAdapter_ExecBatch(t *testing.T) {
	stmts := []string{"DROP VIEW IF EXISTS Test_A", "CREATE VIEW Test_A AS SELECT 1 AS value"}

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "commits all statements",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DROP VIEW IF EXISTS Test_A").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE VIEW Test_A").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back on failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DROP VIEW IF EXISTS Test_A").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE VIEW Test_A").WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			errMsg: "statement 2 (CREATE VIEW Test_A AS SELECT 1 AS value)",
		},
		{
			name: "begin fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(assert.AnError)
			},
			errMsg: "failed to begin transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			base := &BaseSQLAdapter{DB: db}
			err = base.ExecBatch(context.Background(), stmts)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("without connection", func(t *testing.T) {
		err := (&BaseSQLAdapter{}).ExecBatch(context.Background(), stmts)
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("main", "ValueSet").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("ValueSetName", "VARCHAR", "NO", 1).
			AddRow("Display", "VARCHAR", "YES", 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM main.ValueSet")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	base := &BaseSQLAdapter{DB: db}
	meta, err := base.GetTableMetadataCommon(context.Background(), "ValueSet", "main", ansi.ANSI)
	require.NoError(t, err)

	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, "ValueSet", meta.Name)
	assert.Equal(t, int64(12), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, Column{Name: "ValueSetName", Type: "VARCHAR", Position: 1}, meta.Columns[0])
	assert.True(t, meta.Columns[1].Nullable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseQualifiedName(t *testing.T) {
	schema, name := ParseQualifiedName("clinical.Problem", "main")
	assert.Equal(t, "clinical", schema)
	assert.Equal(t, "Problem", name)

	schema, name = ParseQualifiedName("Problem", "public")
	assert.Equal(t, "public", schema)
	assert.Equal(t, "Problem", name)
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	const lookup = "SELECT Code, CodeSystem FROM ValueSet WHERE ValueSetName = 'Screening.Diabetes'"

	t.Run("scans value set codes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta(lookup)).
			WillReturnRows(sqlmock.NewRows([]string{"Code", "CodeSystem"}).
				AddRow("44054006", "SNOMED-CT").
				AddRow("E11", "ICD-10-CM"))

		base := &BaseSQLAdapter{DB: db}
		rows, err := base.Query(context.Background(), lookup)
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()

		var codes []string
		for rows.Next() {
			var code, system string
			require.NoError(t, rows.Scan(&code, &system))
			codes = append(codes, system+"|"+code)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"SNOMED-CT|44054006", "ICD-10-CM|E11"}, codes)
	})

	t.Run("query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta(lookup)).WillReturnError(assert.AnError)

		rows, err := (&BaseSQLAdapter{DB: db}).Query(context.Background(), lookup)
		require.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, rows)
		assert.Contains(t, err.Error(), "failed to execute query")
	})
}
