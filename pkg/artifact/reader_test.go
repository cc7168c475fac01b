package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/pkg/ast"
)

const sampleArtifact = `
artifact:
  identifier:
    root: DiabetesScreening
    version: "1"
  title: Diabetes screening
  models:
    - name: vmr
      uri: urn:hl7-org:vmr:r2
  libraries:
    - name: Common
      path: lib/common.yaml
  valuesets:
    - name: Diabetes
      id: 2.16.840.1.113883.3.464.1003.103.12.1001
      codes:
        - {code: "44054006", system: SNOMED-CT, display: Diabetes mellitus type 2}
  parameters:
    - name: Threshold
      type: Integer
      default: {expr: Literal, valueType: Integer, value: "40"}
  expressions:
    - name: HasDiabetes
      expression:
        expr: IsNotEmpty
        children:
          - expr: ClinicalRequest
            attrs:
              dataType: vmr:ProblemConcern
              cardinality: Multiple
            children:
              - {expr: ValueSet, name: codes, id: 2.16.840.1.113883.3.464.1003.103.12.1001}
    - name: IsAdult
      expression:
        expr: elm:CalculateAge
        precision: Year
        children:
          - {expr: Property, path: birthTime}
  conditions:
    - expr: ExpressionRef
      name: condition
      attrs: {name: HasDiabetes}
  triggers:
    - node: DataEventTrigger
      children:
        - {expr: ExpressionRef, name: expression, attrs: {name: IsAdult}}
  actionGroup:
    node: ActionGroup
    name: actions
    children:
      - node: CollectInformationAction
        name: action
        children:
          - node: ""
            name: responseBinding
            attrs: {container: Responses, property: weight}
`

func TestParse_Artifact(t *testing.T) {
	doc, err := Parse([]byte(sampleArtifact), filepath.Join("artifacts", "diabetes.yaml"))
	require.NoError(t, err)
	require.NotNil(t, doc.Artifact)
	assert.Nil(t, doc.Library)

	a := doc.Artifact
	assert.Equal(t, "DiabetesScreening", a.Name())
	assert.Equal(t, []ModelRef{{Name: "vmr", URI: "urn:hl7-org:vmr:r2"}}, a.Models)
	require.Len(t, a.Libraries, 1)
	assert.Equal(t, filepath.Join("artifacts", "lib", "common.yaml"), a.Libraries[0].Path)

	vs, ok := a.ValueSet("diabetes")
	require.True(t, ok)
	assert.Equal(t, []Code{{Code: "44054006", System: "SNOMED-CT", Display: "Diabetes mellitus type 2"}}, vs.Codes)

	p, ok := a.Parameter("Threshold")
	require.True(t, ok)
	assert.Equal(t, "Integer", p.TypeName)
	require.NotNil(t, p.Default)
	assert.Equal(t, "default", p.Default.Name)
	assert.Equal(t, "40", p.Default.AttrOr("value", ""))

	has, ok := a.Expression("HasDiabetes")
	require.True(t, ok)
	assert.Equal(t, ast.HeD("IsNotEmpty"), has.Expression.NodeType)
	request := has.Expression.ASTChildren()[0]
	assert.Equal(t, "operand", request.Name)
	assert.Equal(t, "vmr:ProblemConcern", request.AttrOr("dataType", ""))
	codes, ok := request.ASTChild("codes")
	require.True(t, ok)
	assert.Equal(t, ast.HeD("ValueSet"), codes.NodeType)

	adult, _ := a.Expression("IsAdult")
	assert.Equal(t, ast.ELM("CalculateAge"), adult.Expression.NodeType)
	assert.Equal(t, "Year", adult.Expression.AttrOr("precision", ""))
	assert.Positive(t, adult.Expression.Line)

	require.Len(t, a.Conditions, 1)
	assert.Equal(t, "HasDiabetes", a.Conditions[0].AttrOr("name", ""))

	require.Len(t, a.Triggers, 1)
	trigger, ok := a.Triggers[0].(*ast.Node)
	require.True(t, ok, "triggers are structural nodes")
	assert.Equal(t, "trigger", trigger.Name)
	assert.Len(t, trigger.ASTChildren(), 1)

	require.NotNil(t, a.ActionGroup)
	group := a.ActionGroup.Base()
	assert.Equal(t, "actions", group.Name)
	binding, ok := group.Children[0].Base().Child("responseBinding")
	require.True(t, ok)
	assert.Equal(t, "weight", binding.Base().AttrOr("property", ""))
}

func TestParse_Library(t *testing.T) {
	doc, err := Parse([]byte(`
library:
  name: Common
  version: "2"
  codesystems:
    - {name: SNOMED, id: 2.16.840.1.113883.6.96}
  expressions:
    - name: Two
      expression: {expr: Literal, valueType: Integer, value: "2"}
`), "")
	require.NoError(t, err)
	require.NotNil(t, doc.Library)

	l := doc.Library
	assert.Equal(t, "Common", l.Name)
	assert.Equal(t, "2", l.Version)
	cs, ok := l.CodeSystem("snomed")
	require.True(t, ok)
	assert.Equal(t, "2.16.840.1.113883.6.96", cs.ID)
	two, ok := l.Expression("two")
	require.True(t, ok)
	assert.Equal(t, "expression", two.Expression.Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", `other: 1`, "must contain an artifact or a library"},
		{"both", "artifact: {title: a}\nlibrary: {name: b}", "not both"},
		{"invalid yaml", "artifact: [", "invalid YAML"},
		{"no name", "artifact: {title: \"\"}", "identifier root or title is required"},
		{"library without name", "library: {version: \"1\"}", "library name is required"},
		{"expression without kind", `
library:
  name: L
  expressions:
    - name: X
      expression: {name: expression, value: "1"}
`, "must be an expression"},
		{"bad children", `
library:
  name: L
  expressions:
    - name: X
      expression: {expr: List, children: {a: b}}
`, "children must be a sequence"},
		{"expr and node", `
library:
  name: L
  expressions:
    - name: X
      expression: {expr: List, node: Foo}
`, "both an expression and a node"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "doc.yaml")
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestQualifyKind(t *testing.T) {
	assert.Equal(t, ast.HeD("Equal"), qualifyKind("Equal"))
	assert.Equal(t, ast.HeD("Equal"), qualifyKind("hed:Equal"))
	assert.Equal(t, ast.ELM("Query"), qualifyKind("elm:Query"))
	assert.Equal(t, "urn:example:Custom", qualifyKind("urn:example:Custom"))
	assert.Equal(t, "", qualifyKind(""))
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "common.yaml")
	require.NoError(t, os.WriteFile(libPath, []byte("library:\n  name: Common\n"), 0o600))

	l, err := ReadLibraryFile(libPath)
	require.NoError(t, err)
	assert.Equal(t, libPath, l.Source)

	_, err = ReadArtifactFile(libPath)
	assert.ErrorIs(t, err, ErrNotArtifact)

	_, err = ReadLibraryFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
