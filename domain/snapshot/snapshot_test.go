package snapshot

import (
	"testing"

	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAliases(t *testing.T) {
	body := `{
		"nodes": [
			{"id": 1, "title": "First", "type": "algorithm", "importance": "0.9", "keywords": ["sorting"]},
			{"id": "two", "name": "Second", "key_phrases": ["graphs"], "x": 10, "y": 20},
			{"id": "three", "label": "Third", "confidence": null, "recency": "soon"}
		],
		"links": [{"source": 1, "target": "two", "weight": 0.4}],
		"edges": [
			{"sourceId": "two", "targetId": "three", "relationship": "uses"},
			{"from": {"id": "three"}, "to": {"id": 1}, "strength": 0.9}
		]
	}`

	snap, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 3)

	first := snap.Nodes[0]
	assert.Equal(t, valueobjects.NodeID("1"), first.ID)
	assert.Equal(t, "First", first.Label)
	assert.Equal(t, "algorithm", first.Category)
	require.NotNil(t, first.Importance)
	assert.Equal(t, 0.9, *first.Importance)
	assert.Equal(t, []string{"sorting"}, first.KeyPhrases)
	assert.Nil(t, first.Position())

	second := snap.Nodes[1]
	assert.Equal(t, "Second", second.Label)
	assert.Equal(t, []string{"graphs"}, second.KeyPhrases)
	require.NotNil(t, second.Position())
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, *second.Position())

	third := snap.Nodes[2]
	assert.Nil(t, third.Confidence)
	assert.Nil(t, third.Recency)

	edges := snap.AllEdges()
	require.Len(t, edges, 3)
	assert.Equal(t, valueobjects.NodeID("1"), edges[0].Source)
	require.NotNil(t, edges[0].Strength)
	assert.Equal(t, 0.4, *edges[0].Strength)
	assert.Equal(t, "uses", edges[1].Type)
	assert.Equal(t, valueobjects.NodeID("three"), edges[2].Source)
	assert.Equal(t, valueobjects.NodeID("1"), edges[2].Target)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "<html>"},
		{"nodes not array", `{"nodes": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Decode([]byte(tt.body))
			assert.Nil(t, snap)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestSnapshotEncodeUsesCanonicalNames(t *testing.T) {
	snap, err := Decode([]byte(`{"nodes":[{"id":"a","title":"A"}],"edges":[{"from":"a","to":"b"}]}`))
	require.NoError(t, err)

	data, err := snap.Encode()
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"nodes":[{"id":"a","label":"A"}],"edges":[{"source":"a","target":"b"}]}`,
		string(data))

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestFallbackSample(t *testing.T) {
	first := FallbackSample()
	second := FallbackSample()

	assert.False(t, first.IsEmpty())
	assert.Equal(t, first, second)

	ids := make(map[valueobjects.NodeID]bool)
	for _, n := range first.Nodes {
		assert.False(t, ids[n.ID], "duplicate id %s", n.ID)
		ids[n.ID] = true
	}
	for _, e := range first.AllEdges() {
		assert.True(t, ids[e.Source], "dangling source %s", e.Source)
		assert.True(t, ids[e.Target], "dangling target %s", e.Target)
		assert.NotEqual(t, e.Source, e.Target)
	}

	// Callers may mutate their copy freely
	first.Nodes[0].Label = "changed"
	assert.NotEqual(t, "changed", FallbackSample().Nodes[0].Label)
}

func TestSnapshotIsEmpty(t *testing.T) {
	var nilSnap *Snapshot
	assert.True(t, nilSnap.IsEmpty())
	assert.True(t, (&Snapshot{}).IsEmpty())
	assert.Nil(t, nilSnap.AllEdges())
}
