package sqlgen

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/translate"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// TableMapping maps a model type onto a table of the target schema.
type TableMapping struct {
	Table   string            `mapstructure:"table"`
	Columns map[string]string `mapstructure:"columns"`
}

// Mapping maps model types onto a target schema whose tables and columns
// are named differently. Keys are model type names; column keys are
// top-level property names.
//
//	tables:
//	  Problem:
//	    table: problems
//	    columns:
//	      problemCode: code
//
// Unmapped properties keep their names.
type Mapping struct {
	Tables map[string]TableMapping `mapstructure:"tables"`
}

// DecodeMapping decodes a mapping from configuration values.
func DecodeMapping(raw map[string]any) (*Mapping, error) {
	var m Mapping
	if err := mapstructure.Decode(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding model mapping: %w", err)
	}
	for name, t := range m.Tables {
		if t.Table == "" {
			return nil, fmt.Errorf("model mapping for %s has no table", name)
		}
	}
	return &m, nil
}

// Register installs the mapping as the model translator of every mapped
// type.
func (m *Mapping) Register(r *translate.Registry) {
	for name := range m.Tables {
		r.HandleModel(name, m)
	}
}

func (m *Mapping) lookup(typeName string) (TableMapping, bool) {
	for name, t := range m.Tables {
		if strings.EqualFold(name, typeName) {
			return t, true
		}
	}
	return TableMapping{}, false
}

func (t TableMapping) column(property string) string {
	for name, column := range t.Columns {
		if strings.EqualFold(name, property) {
			return column
		}
	}
	return property
}

// TransformModel implements translate.ModelTranslator. The result is named
// after the target table and has the mapped column names.
func (m *Mapping) TransformModel(_ *translate.Context, source *types.ObjectType) (*types.ObjectType, error) {
	t, ok := m.lookup(source.Name())
	if !ok {
		return nil, &translate.HandlerError{Name: source.Name()}
	}
	var props []*types.PropertyDef
	for _, p := range types.AllProperties(source) {
		props = append(props, &types.PropertyDef{Name: t.column(p.Name), Type: p.Type})
	}
	return types.NewObjectType(t.Table, nil, props...), nil
}

// TransformModelPath implements translate.ModelTranslator. It returns the
// path with its first segment renamed.
func (m *Mapping) TransformModelPath(_ *translate.Context, source *types.ObjectType, _ *ast.ASTNode, path string) (any, error) {
	t, ok := m.lookup(source.Name())
	if !ok {
		return nil, &translate.HandlerError{Name: source.Name()}
	}
	head, rest := path, ""
	if i := strings.IndexAny(path, ".["); i >= 0 {
		head, rest = path[:i], path[i:]
	}
	return t.column(head) + rest, nil
}

var _ translate.ModelTranslator = (*Mapping)(nil)
