package types

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCoding struct {
	System string
	Code   string
}

type testStatus string

func (s testStatus) Enumeration() string { return string(s) }

type testResource struct {
	ID string `hed:"id"`
}

type testObservation struct {
	testResource
	Status   testStatus
	Codings  []testCoding `hed:"coding"`
	Issued   time.Time
	Related  *testObservation
	Internal string `hed:"-"`
	Value    testObservationValue `hed:",choice"`
	hidden   int
}

type testObservationValue struct {
	Quantity float64 `hed:"valueQuantity"`
	Text     string  `hed:"valueString"`
}

func TestResolver_ResolveType_Primitives(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		value any
		want  DataType
	}{
		{true, Boolean},
		{int64(1), Integer},
		{uint8(1), Integer},
		{1.5, Decimal},
		{"s", String},
		{time.Now(), DateTime},
		{[]string{}, NewListType(String)},
		{testStatus("active"), Code},
	}
	for _, tt := range tests {
		t.Run(reflect.TypeOf(tt.value).String(), func(t *testing.T) {
			got, err := r.ResolveValue(tt.value)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s", got)
		})
	}

	_, err := r.ResolveValue(map[string]int{})
	assert.ErrorIs(t, err, ErrUnsupportedNativeType)
}

func TestResolver_ResolveType_Struct(t *testing.T) {
	r := NewResolver()
	resolved, err := r.ResolveType(reflect.TypeOf(&testObservation{}))
	require.NoError(t, err)

	obs, ok := resolved.(*ObjectType)
	require.True(t, ok)
	assert.Equal(t, "testObservation", obs.Name())

	base, ok := obs.BaseType().(*ObjectType)
	require.True(t, ok, "embedded struct becomes the base type")
	assert.Equal(t, "testResource", base.Name())

	names := make([]string, 0, len(obs.Properties))
	for _, p := range obs.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"status", "coding", "issued", "related", "valueQuantity", "valueString"}, names)

	related, ok := obs.Property("related")
	require.True(t, ok)
	assert.Same(t, obs, related.Type, "self reference resolves to the cached instance")

	again, err := r.ResolveType(reflect.TypeOf(testObservation{}))
	require.NoError(t, err)
	assert.Same(t, obs, again)

	byName, ok := r.Lookup("testobservation")
	require.True(t, ok)
	assert.Same(t, obs, byName)
}

func TestResolver_RegisterNative(t *testing.T) {
	r := NewResolver()
	r.RegisterNative(reflect.TypeOf(testCoding{}), Code)

	got, err := r.ResolveType(reflect.TypeOf([]*testCoding{}))
	require.NoError(t, err)
	assert.True(t, Equal(CodeList, got))
}

func TestResolveProperty(t *testing.T) {
	r := NewResolver()
	r.RegisterNative(reflect.TypeOf(testCoding{}), Code)
	resolved, err := r.ResolveType(reflect.TypeOf(testObservation{}))
	require.NoError(t, err)

	tests := []struct {
		name    string
		typ     DataType
		path    string
		want    DataType
		wantErr error
	}{
		{name: "direct", typ: resolved, path: "issued", want: DateTime},
		{name: "case insensitive", typ: resolved, path: "ISSUED", want: DateTime},
		{name: "inherited", typ: resolved, path: "id", want: String},
		{name: "list", typ: resolved, path: "coding", want: CodeList},
		{name: "indexer", typ: resolved, path: "coding[0]", want: Code},
		{name: "indexer then member", typ: resolved, path: "coding[0].code", want: String},
		{name: "nested", typ: resolved, path: "related.related.status", want: Code},
		{name: "choice alternative", typ: resolved, path: "valueQuantity", want: Decimal},
		{name: "interval", typ: DateTimeInterval, path: "low", want: DateTime},
		{name: "interval flag", typ: DateTimeInterval, path: "endOpen", want: Boolean},
		{name: "missing", typ: resolved, path: "nope", wantErr: ErrUnresolvedProperty},
		{name: "scalar source", typ: Integer, path: "value", wantErr: ErrUnresolvedProperty},
		{name: "bad indexer", typ: resolved, path: "coding[0", wantErr: ErrBadIndexer},
		{name: "index non list", typ: resolved, path: "issued[0]", wantErr: ErrNotIndexable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProperty(tt.typ, tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s", got)
		})
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"code", "coding[1]"}, SplitPath("code.coding[1]"))
	assert.Equal(t, []string{"contained[medication.reference]", "code"}, SplitPath("contained[medication.reference].code"))
	assert.Equal(t, []string{"value"}, SplitPath("value"))
}

func TestAllProperties(t *testing.T) {
	props := AllProperties(CodedOrdinal)
	require.Len(t, props, 6)
	assert.Equal(t, "code", props[0].Name)
	assert.Equal(t, "value", props[5].Name)
}
