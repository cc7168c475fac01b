package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids[T any](nodes []*Node[T]) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func build(t *testing.T, nodes []string, edges [][2]string) *Graph[int] {
	t.Helper()
	g := New[int]()
	for i, id := range nodes {
		g.AddNode(id, i)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := build(t, []string{"Common", "Labs", "Diabetes"}, [][2]string{
		{"Common", "Labs"},
		{"Labs", "Diabetes"},
		{"Labs", "Diabetes"},
	})

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"Labs"}, g.Children("Common"))
	assert.Equal(t, []string{"Labs"}, g.Parents("Diabetes"))

	g.AddNode("Labs", 42)
	n, ok := g.Node("Labs")
	require.True(t, ok)
	assert.Equal(t, 42, n.Data)
}

func TestGraph_AddEdge_Errors(t *testing.T) {
	g := New[string]()
	g.AddNode("a", "")

	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))

	var cycleErr *CycleError
	require.ErrorAs(t, g.AddEdge("a", "a"), &cycleErr)
	assert.Equal(t, []string{"a", "a"}, cycleErr.Path)
}

func TestGraph_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{
			name:  "acyclic",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
		},
		{
			name:  "three node cycle",
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			want:  []string{"a", "b", "c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, []string{"a", "b", "c"}, tt.edges)
			assert.Equal(t, tt.want, g.Cycle())
		})
	}
}

func TestGraph_Sort(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d
	g := build(t, []string{"d", "c", "b", "a"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})

	sorted, err := g.Sort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(sorted))
}

func TestGraph_Sort_WithCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	_, err := g.Sort()

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, "cycle detected: a -> b -> a", err.Error())
}

func TestGraph_UpstreamAndSubgraph(t *testing.T) {
	g := build(t, []string{"Common", "Labs", "Meds", "Diabetes", "Unrelated"}, [][2]string{
		{"Common", "Labs"},
		{"Common", "Meds"},
		{"Labs", "Diabetes"},
		{"Meds", "Diabetes"},
	})

	up := g.Upstream("Diabetes")
	assert.Equal(t, []string{"Common", "Labs", "Meds"}, up)
	assert.Empty(t, g.Upstream("Common"))

	sub := g.Subgraph(append(up, "Diabetes", "ghost"))
	assert.Equal(t, 4, sub.Len())
	sorted, err := sub.Sort()
	require.NoError(t, err)
	assert.Equal(t, []string{"Common", "Labs", "Meds", "Diabetes"}, ids(sorted))
}
