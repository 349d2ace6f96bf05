package aggregates

import (
	"errors"
	"testing"

	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, id string) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(entities.NodeSpec{ID: valueobjects.NodeID(id), Label: id})
	require.NoError(t, err)
	return node
}

func mustEdge(t *testing.T, src, tgt string, generated bool) *entities.Edge {
	t.Helper()
	edge, err := entities.NewEdge(entities.EdgeSpec{
		SourceID:  valueobjects.NodeID(src),
		TargetID:  valueobjects.NodeID(tgt),
		Generated: generated,
	})
	require.NoError(t, err)
	return edge
}

func buildGraph(t *testing.T, ids []string, pairs [][2]string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range ids {
		require.NoError(t, g.AddNode(mustNode(t, id)))
	}
	for _, p := range pairs {
		_, err := g.ConnectNodes(mustEdge(t, p[0], p[1], false))
		require.NoError(t, err)
	}
	return g
}

func TestGraphAddNode(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(mustNode(t, "a")))

	err := g.AddNode(mustNode(t, "a"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, 1, g.NodeCount())

	assert.Error(t, g.AddNode(nil))
}

func TestGraphConnectNodes(t *testing.T) {
	tests := []struct {
		name      string
		edge      func(t *testing.T) *entities.Edge
		wantAdded bool
		wantErr   error
	}{
		{
			name:      "new pair added",
			edge:      func(t *testing.T) *entities.Edge { return mustEdge(t, "b", "c", false) },
			wantAdded: true,
		},
		{
			name:    "dangling target rejected",
			edge:    func(t *testing.T) *entities.Edge { return mustEdge(t, "a", "missing", false) },
			wantErr: ErrDanglingEdge,
		},
		{
			name:      "reverse direction collapses",
			edge:      func(t *testing.T) *entities.Edge { return mustEdge(t, "b", "a", false) },
			wantAdded: false,
		},
		{
			name: "self loop rejected",
			edge: func(t *testing.T) *entities.Edge {
				return &entities.Edge{SourceID: "a", TargetID: "a"}
			},
			wantErr: ErrSelfLoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}})

			added, err := g.ConnectNodes(tt.edge(t))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.False(t, added)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, added)
			assert.NoError(t, g.Validate())
		})
	}
}

func TestGraphDelimiterInNodeIDs(t *testing.T) {
	tests := []struct {
		name  string
		first [2]string
		then  [2]string
	}{
		{name: "pipe in source", first: [2]string{"a|b", "c"}, then: [2]string{"a", "b|c"}},
		{name: "pipe in target", first: [2]string{"c", "a|b"}, then: [2]string{"b|c", "a"}},
		{name: "pipe at the edges", first: [2]string{"x|", "y"}, then: [2]string{"x", "|y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{tt.first[0], tt.first[1], tt.then[0], tt.then[1]}
			g := buildGraph(t, ids, [][2]string{tt.first})
			assert.False(t, g.HasEdgeBetween(valueobjects.NodeID(tt.then[0]), valueobjects.NodeID(tt.then[1])))

			added, err := g.ConnectNodes(mustEdge(t, tt.then[0], tt.then[1], false))
			require.NoError(t, err)
			assert.True(t, added)
			assert.Equal(t, 2, g.EdgeCount())
			assert.True(t, g.HasEdgeBetween(valueobjects.NodeID(tt.first[0]), valueobjects.NodeID(tt.first[1])))
			assert.True(t, g.HasEdgeBetween(valueobjects.NodeID(tt.then[0]), valueobjects.NodeID(tt.then[1])))
			assert.NoError(t, g.Validate())
		})
	}
}

func TestGraphExplicitEdgeReplacesGenerated(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, nil)

	added, err := g.ConnectNodes(mustEdge(t, "a", "b", true))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = g.ConnectNodes(mustEdge(t, "b", "a", false))
	require.NoError(t, err)
	assert.False(t, added)

	edge, ok := g.EdgeBetween("a", "b")
	require.True(t, ok)
	assert.False(t, edge.Generated)
	assert.Equal(t, 1, g.EdgeCount())

	// A generated edge never replaces an explicit one
	_, err = g.ConnectNodes(mustEdge(t, "a", "b", true))
	require.NoError(t, err)
	edge, _ = g.EdgeBetween("a", "b")
	assert.False(t, edge.Generated)
}

func TestGraphRemoveNodeCascades(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})

	require.NoError(t, g.RemoveNode("b"))

	assert.False(t, g.HasNode("b"))
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdgeBetween("a", "c"))
	assert.Equal(t, []valueobjects.NodeID{"c"}, g.Neighbors("a"))
	assert.Equal(t, []valueobjects.NodeID{"a", "c"}, g.NodeIDs())
	assert.NoError(t, g.Validate())

	err := g.RemoveNode("b")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGraphRemoveEdge(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})

	assert.True(t, g.RemoveEdge("b", "a"))
	assert.False(t, g.RemoveEdge("a", "b"))
	assert.Empty(t, g.IncidentEdges("a"))
	assert.Empty(t, g.Neighbors("b"))
}

func TestGraphGetClusters(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"c", "b"}, {"d", "e"}},
	)

	clusters := g.GetClusters()
	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []valueobjects.NodeID{"a", "b", "c"}, clusters[0])
	assert.ElementsMatch(t, []valueobjects.NodeID{"d", "e"}, clusters[1])
}

func TestGraphInsertionOrder(t *testing.T) {
	ids := []string{"z", "y", "x", "w"}
	g := buildGraph(t, ids, [][2]string{{"z", "w"}, {"x", "y"}})

	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID().String())
	}
	assert.Equal(t, ids, got)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, entities.NewPairKey("w", "z"), edges[0].Key())
	assert.Equal(t, entities.NewPairKey("x", "y"), edges[1].Key())
}

func TestGraphSetNodePosition(t *testing.T) {
	g := buildGraph(t, []string{"a"}, nil)

	require.NoError(t, g.SetNodePosition("a", valueobjects.Position{X: 3, Y: 4}, valueobjects.Position{}))
	node, err := g.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, node.Position().X)

	assert.Error(t, g.SetNodePosition("missing", valueobjects.Position{}, valueobjects.Position{}))
}
