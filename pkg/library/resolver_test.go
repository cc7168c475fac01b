package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/internal/dag"
	"github.com/leapstack-labs/leaphed/internal/testutil"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

// memReader serves libraries from memory and counts reads.
type memReader struct {
	libs  map[string]func() *artifact.Library
	reads map[string]int
}

func newMemReader(libs ...func() *artifact.Library) *memReader {
	r := &memReader{libs: make(map[string]func() *artifact.Library), reads: make(map[string]int)}
	for _, lib := range libs {
		r.libs[lib().Name] = lib
	}
	return r
}

func (r *memReader) Read(_ context.Context, ref artifact.LibraryRef) (*artifact.Library, error) {
	build, ok := r.libs[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Name)
	}
	r.reads[ref.Name]++
	return build(), nil
}

func lib(name string, imports []string, defs ...*artifact.ExpressionDef) func() *artifact.Library {
	return func() *artifact.Library {
		l := &artifact.Library{Name: name}
		for _, imp := range imports {
			l.Libraries = append(l.Libraries, artifact.LibraryRef{Name: imp})
		}
		l.Expressions = defs
		return l
	}
}

func libraryRef(library, name string) *ast.ASTNode {
	return testutil.Expr("ExpressionRef", ast.Attrs{"libraryName": library, "name": name})
}

func importing(names ...string) *artifact.Artifact {
	a := testutil.Artifact("importer")
	for _, name := range names {
		a.Libraries = append(a.Libraries, artifact.LibraryRef{Name: name})
	}
	return a
}

func verifyWith(t *testing.T, reader Reader, a *artifact.Artifact) (*Resolver, *verify.Verifier, verify.Diagnostics) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	resolver := NewResolver(reader, logger)
	v, err := verify.New(verify.Options{Libraries: resolver, Logger: logger})
	require.NoError(t, err)
	diags, err := v.VerifyArtifact(context.Background(), a)
	require.NoError(t, err)
	return resolver, v, diags
}

func TestResolver_ResolvesAndCaches(t *testing.T) {
	reader := newMemReader(lib("Common", nil, testutil.Def("Two", testutil.Int("2"))))
	a := importing("Common")
	first := libraryRef("Common", "Two")
	second := libraryRef("common", "two")
	a.Expressions = []*artifact.ExpressionDef{
		testutil.Def("UsesTwo", testutil.Expr("Add", nil, first, second)),
	}

	_, v, diags := verifyWith(t, reader, a)

	assert.Empty(t, diags.Messages())
	assert.Equal(t, 1, reader.reads["Common"])
	assert.Equal(t, types.Integer, v.Annotations().ResultType(a.Expressions[0].Expression))
}

func TestResolver_LibraryErrorsAreAttributed(t *testing.T) {
	bad := testutil.Expr("List", nil, testutil.Int("1"), testutil.Str("2"))
	reader := newMemReader(lib("Common", nil, testutil.Def("Bad", bad)))

	_, _, diags := verifyWith(t, reader, importing("Common"))

	assert.Equal(t, []string{
		"Common: All elements of a list must be of the same type.",
		"Errors encountered while verifying library Common.",
	}, diags.Messages())
	assert.Equal(t, "Common", diags[0].Library)
	assert.True(t, errors.Is(diags[1], ErrInvalid))
}

func TestResolver_CircularImport(t *testing.T) {
	reader := newMemReader(lib("A", []string{"B"}), lib("B", []string{"A"}))

	resolver, _, diags := verifyWith(t, reader, importing("A"))

	assert.Equal(t, []string{
		"B: Circular library reference to library A.",
		"A: Errors encountered while verifying library B.",
		"Errors encountered while verifying library A.",
	}, diags.Messages())

	var circular *CircularReferenceError
	require.True(t, errors.As(diags[0], &circular))
	assert.Equal(t, []string{"A", "B"}, circular.Path)
	assert.Empty(t, resolver.Libraries())
}

func TestResolver_MissingLibrary(t *testing.T) {
	_, _, diags := verifyWith(t, newMemReader(), importing("Nope"))

	require.Len(t, diags, 1)
	assert.True(t, errors.Is(diags[0], ErrNotFound))
}

func TestResolver_Ordered(t *testing.T) {
	reader := newMemReader(
		lib("Common", nil),
		lib("Labs", []string{"Common"}),
		lib("Diabetes", []string{"Labs", "Common"}),
		lib("Unused", nil),
	)

	resolver, _, diags := verifyWith(t, reader, importing("Diabetes"))
	require.Empty(t, diags)

	ordered, err := resolver.Ordered([]artifact.LibraryRef{{Name: "Diabetes"}})
	require.NoError(t, err)

	var names []string
	for _, l := range ordered {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Common", "Labs", "Diabetes"}, names)
	assert.Equal(t, 1, reader.reads["Common"])

	_, err = resolver.Ordered([]artifact.LibraryRef{{Name: "Unused"}})
	assert.Error(t, err)
}

func TestResolver_GraphReportsBadEdges(t *testing.T) {
	resolver := NewResolver(newMemReader(), nil)
	resolver.store("Loop", &entry{lib: lib("Loop", []string{"loop"})()})

	_, err := resolver.Graph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library Loop imports loop")
	var cycle *dag.CycleError
	assert.ErrorAs(t, err, &cycle)

	_, err = resolver.Ordered([]artifact.LibraryRef{{Name: "Loop"}})
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDirReader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Common.yaml"), "library:\n  name: Common\n")
	writeFile(t, filepath.Join(dir, "Labs-2.yml"), "library:\n  name: Labs\n  version: \"2\"\n")
	writeFile(t, filepath.Join(dir, "nested", "meds.yaml"), "library:\n  name: Meds\n")
	writeFile(t, filepath.Join(dir, "Wrong.yaml"), "library:\n  name: Other\n")

	tests := []struct {
		name    string
		ref     artifact.LibraryRef
		want    string
		wantErr error
	}{
		{name: "by name", ref: artifact.LibraryRef{Name: "Common"}, want: "Common"},
		{name: "version falls back to name", ref: artifact.LibraryRef{Name: "Common", Version: "9"}, want: "Common"},
		{name: "by name and version", ref: artifact.LibraryRef{Name: "Labs", Version: "2"}, want: "Labs"},
		{name: "relative path", ref: artifact.LibraryRef{Name: "Meds", Path: filepath.Join("nested", "meds.yaml")}, want: "Meds"},
		{name: "missing", ref: artifact.LibraryRef{Name: "Nope"}, wantErr: ErrNotFound},
		{name: "name mismatch", ref: artifact.LibraryRef{Name: "Wrong"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DirReader{Dir: dir}.Read(context.Background(), tt.ref)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}
