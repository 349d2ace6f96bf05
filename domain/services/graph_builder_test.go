package services

import (
	"testing"

	"kgview/domain/config"
	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	"kgview/domain/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBuilderFallback(t *testing.T) {
	builder := NewGraphBuilder(nil, nil)
	sample := snapshot.FallbackSample()

	tests := []struct {
		name string
		snap *snapshot.Snapshot
	}{
		{"nil snapshot", nil},
		{"no nodes", &snapshot.Snapshot{Nodes: []snapshot.RawNode{}}},
		{"only nodes without ids", &snapshot.Snapshot{Nodes: []snapshot.RawNode{{Label: "orphan"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, report := builder.Build(tt.snap)
			require.NotNil(t, graph)
			assert.True(t, report.UsedFallback)
			assert.Equal(t, len(sample.Nodes), graph.NodeCount())
			assert.Equal(t, len(sample.Links), graph.EdgeCount())
			assert.NoError(t, graph.Validate())
		})
	}
}

func TestGraphBuilderDropsInvalidEdges(t *testing.T) {
	snap, err := snapshot.Decode([]byte(`{
		"nodes": [
			{"id": "a", "label": "A"},
			{"id": "b", "label": "B"},
			{"id": "a", "label": "Duplicate A"},
			{"label": "no id"}
		],
		"links": [
			{"source": "a", "target": "b", "strength": 0.9},
			{"source": "b", "target": "a"},
			{"source": "a", "target": "a"},
			{"source": "a", "target": "ghost"},
			{"source": "", "target": "b"}
		]
	}`))
	require.NoError(t, err)

	graph, report := NewGraphBuilder(nil, nil).Build(snap)

	assert.False(t, report.UsedFallback)
	assert.Equal(t, 4, report.NodesReceived)
	assert.Equal(t, 2, report.NodesAccepted)
	assert.Equal(t, 1, report.DuplicateNodes)
	assert.Equal(t, 1, report.NodesMissingID)
	assert.Equal(t, 5, report.EdgesReceived)
	assert.Equal(t, 1, report.EdgesAccepted)
	assert.Equal(t, 1, report.DuplicateEdges)
	assert.Equal(t, 1, report.SelfLoops)
	assert.Equal(t, 2, report.DanglingEdges)

	node, err := graph.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "A", node.Label())
	assert.Equal(t, 1, graph.EdgeCount())
	assert.Equal(t, 0.9, graph.Edges()[0].Strength)
	assert.NoError(t, graph.Validate())
}

func TestGraphBuilderAnalyzesMissingFields(t *testing.T) {
	nan := `"NaN"`
	snap, err := snapshot.Decode([]byte(`{
		"nodes": [{
			"id": 7,
			"content": "Dijkstra's algorithm finds shortest paths in weighted graphs. Shortest paths matter for routing.",
			"importance": ` + nan + `,
			"confidence": 3
		}]
	}`))
	require.NoError(t, err)

	graph, report := NewGraphBuilder(nil, nil).Build(snap)
	require.Equal(t, 1, report.NodesAccepted)

	node, err := graph.GetNode("7")
	require.NoError(t, err)
	assert.Equal(t, "Dijkstra's Algorithm Finds Shortest…", node.Label())
	assert.Equal(t, valueobjects.CategoryAlgorithm, node.Category())
	assert.Equal(t, entities.DefaultImportance, node.Importance())
	assert.Equal(t, 1.0, node.Confidence())
	assert.Equal(t, entities.DefaultRecency, node.Recency())
	assert.Contains(t, node.KeyPhrases(), "shortest paths")
}

func TestGraphBuilderKeepsStorePhrasesAndPositions(t *testing.T) {
	x, y := 12.0, -4.0
	snap := &snapshot.Snapshot{Nodes: []snapshot.RawNode{{
		ID:         "n",
		Label:      "graph_notes.md",
		Category:   "topic",
		KeyPhrases: []string{"  Graph   Theory ", "graph theory", "Trees"},
		X:          &x,
		Y:          &y,
	}}}

	graph, _ := NewGraphBuilder(nil, nil).Build(snap)
	node, err := graph.GetNode("n")
	require.NoError(t, err)

	assert.Equal(t, "Graph Notes", node.Label())
	assert.Equal(t, valueobjects.CategoryTopic, node.Category())
	assert.Equal(t, []string{"graph theory", "trees"}, node.KeyPhrases())
	assert.True(t, node.HasInitialPosition())
	assert.Equal(t, valueobjects.Position{X: 12, Y: -4}, node.Position())
}

func TestGraphBuilderTruncatesOversizedSnapshots(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerSnapshot = 2

	snap := &snapshot.Snapshot{Nodes: []snapshot.RawNode{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	graph, report := NewGraphBuilder(nil, cfg).Build(snap)

	assert.Equal(t, 2, graph.NodeCount())
	assert.True(t, report.Truncated)
}
