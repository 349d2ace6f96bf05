package snapshot

import "kgview/domain/core/valueobjects"

// FallbackSample returns the built-in sample graph shown when the store
// returns nothing usable. Every call returns a fresh, identical copy.
func FallbackSample() *Snapshot {
	f := func(v float64) *float64 { return &v }

	node := func(id, label, category, content string, importance float64, phrases ...string) RawNode {
		return RawNode{
			ID:         valueobjects.NodeID(id),
			Label:      label,
			Category:   category,
			Importance: f(importance),
			Confidence: f(0.8),
			Recency:    f(0.5),
			KeyPhrases: phrases,
			Content:    content,
		}
	}
	link := func(source, target, relType string, strength float64) RawEdge {
		return RawEdge{
			Source:   valueobjects.NodeID(source),
			Target:   valueobjects.NodeID(target),
			Type:     relType,
			Strength: f(strength),
		}
	}

	return &Snapshot{
		Nodes: []RawNode{
			node("knowledge-graph", "Knowledge Graph", "concept",
				"A knowledge graph links concepts, entities and documents through typed relationships.",
				0.9, "knowledge graph", "typed relationships"),
			node("graph-theory", "Graph Theory", "mathematics",
				"Graph theory studies vertices, edges and the paths between them.",
				0.8, "graph theory", "shortest paths"),
			node("adjacency-list", "Adjacency List", "data_structure",
				"An adjacency list stores each vertex with the vertices it connects to.",
				0.6, "adjacency list", "graph storage"),
			node("bfs", "Breadth First Search", "algorithm",
				"Breadth first search explores a graph level by level using a queue.",
				0.7, "breadth first search", "graph traversal", "shortest paths"),
			node("force-layout", "Force Directed Layout", "algorithm",
				"A force directed layout positions vertices with attraction along edges and repulsion between all pairs.",
				0.7, "force directed layout", "graph drawing"),
			node("semantic-search", "Semantic Search", "system",
				"Semantic search retrieves documents by meaning rather than exact keyword matches.",
				0.6, "semantic search", "document retrieval"),
			node("ontology", "Ontology", "principle",
				"An ontology defines the classes and relationships allowed in a knowledge graph.",
				0.5, "knowledge graph", "class hierarchy"),
			node("research-notes", "Research Notes", "document",
				"Notes collecting papers on graph drawing and knowledge graph construction.",
				0.4, "graph drawing", "knowledge graph"),
		},
		Links: []RawEdge{
			link("knowledge-graph", "graph-theory", "is_a", 0.7),
			link("graph-theory", "bfs", "includes", 0.6),
			link("bfs", "adjacency-list", "uses", 0.8),
			link("force-layout", "graph-theory", "uses", 0.5),
			link("semantic-search", "knowledge-graph", "uses", 0.6),
			link("ontology", "knowledge-graph", "related_to", 0.7),
			link("research-notes", "force-layout", "mentions", 0.4),
		},
	}
}
