package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

func TestSQLite_Registered(t *testing.T) {
	d, ok := dialect.Get("SQLite")
	require.True(t, ok)
	assert.Same(t, SQLite, d)
}

func TestSQLite_DateFunctions(t *testing.T) {
	add, ok := SQLite.Function(dialect.FnDateAdd)
	require.True(t, ok)
	diff, ok := SQLite.Function(dialect.FnDateDiff)
	require.True(t, ok)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"add years", add([]string{"d", "2", SQLite.Unit("year")}), "datetime(d, (2) || ' years')"},
		{"add weeks", add([]string{"d", "2", SQLite.Unit("week")}), "datetime(d, ((2) * 7) || ' days')"},
		{"diff years", diff([]string{SQLite.Unit("year"), "s", "e"}), "CAST((julianday(e) - julianday(s)) / 365.25 AS INTEGER)"},
		{"diff days", diff([]string{SQLite.Unit("day"), "s", "e"}), "CAST((julianday(e) - julianday(s)) AS INTEGER)"},
		{"diff hours", diff([]string{SQLite.Unit("hour"), "s", "e"}), "CAST((julianday(e) - julianday(s)) * 24 AS INTEGER)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestSQLite_ReservedWords(t *testing.T) {
	assert.Equal(t, `"Index"`, SQLite.QuoteIdentifierIfNeeded("Index"))
	assert.Equal(t, `"order"`, SQLite.QuoteIdentifierIfNeeded("order"))
	assert.Equal(t, "Problem", SQLite.QuoteIdentifierIfNeeded("Problem"))
}
