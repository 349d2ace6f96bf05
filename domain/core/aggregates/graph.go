package aggregates

import (
	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// Insertion errors. Ingestion drops the offending edge and counts it.
var (
	ErrSelfLoop     = pkgerrors.NewValidationError("cannot connect node to itself")
	ErrDanglingEdge = pkgerrors.NewValidationError("both nodes must exist in graph")
)

// Graph is the aggregate root for one snapshot's node and edge set.
// Nodes live in an arena keyed by id and edges are plain id pairs, so nothing
// holds a pointer to another node. Insertion order is kept for deterministic
// iteration.
type Graph struct {
	nodes     map[valueobjects.NodeID]*entities.Node
	nodeOrder []valueobjects.NodeID
	edges     map[entities.PairKey]*entities.Edge
	edgeOrder []entities.PairKey
	adjacency map[valueobjects.NodeID][]entities.PairKey
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		edges:     make(map[entities.PairKey]*entities.Edge),
		adjacency: make(map[valueobjects.NodeID][]entities.PairKey),
	}
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AddNode adds a node; duplicate ids are a conflict
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError("node " + node.ID().String() + " already exists")
	}

	g.nodes[node.ID()] = node
	g.nodeOrder = append(g.nodeOrder, node.ID())
	return nil
}

// GetNode returns the node with the given id
func (g *Graph) GetNode(nodeID valueobjects.NodeID) (*entities.Node, error) {
	node, exists := g.nodes[nodeID]
	if !exists {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

// HasNode checks if a node exists
func (g *Graph) HasNode(nodeID valueobjects.NodeID) bool {
	_, exists := g.nodes[nodeID]
	return exists
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node ids in insertion order
func (g *Graph) NodeIDs() []valueobjects.NodeID {
	return append([]valueobjects.NodeID(nil), g.nodeOrder...)
}

// RemoveNode removes a node and every edge incident to it
func (g *Graph) RemoveNode(nodeID valueobjects.NodeID) error {
	if _, exists := g.nodes[nodeID]; !exists {
		return pkgerrors.NewNotFoundError("node")
	}

	for _, key := range append([]entities.PairKey(nil), g.adjacency[nodeID]...) {
		g.removeEdgeByKey(key)
	}
	delete(g.adjacency, nodeID)
	delete(g.nodes, nodeID)
	for i, id := range g.nodeOrder {
		if id == nodeID {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ConnectNodes stores edge. It reports whether a new pair was added. A second
// edge for an existing pair collapses into the first, except that an explicit
// edge replaces a generated one.
func (g *Graph) ConnectNodes(edge *entities.Edge) (bool, error) {
	if edge == nil {
		return false, pkgerrors.NewValidationError("edge cannot be nil")
	}
	if edge.SourceID.Equals(edge.TargetID) {
		return false, ErrSelfLoop
	}
	if !g.HasNode(edge.SourceID) || !g.HasNode(edge.TargetID) {
		return false, ErrDanglingEdge
	}

	key := edge.Key()
	if existing, exists := g.edges[key]; exists {
		if existing.Generated && !edge.Generated {
			g.edges[key] = edge
		}
		return false, nil
	}

	g.edges[key] = edge
	g.edgeOrder = append(g.edgeOrder, key)
	g.adjacency[edge.SourceID] = append(g.adjacency[edge.SourceID], key)
	g.adjacency[edge.TargetID] = append(g.adjacency[edge.TargetID], key)
	return true, nil
}

// RemoveEdge removes the edge between a and b in either direction
func (g *Graph) RemoveEdge(a, b valueobjects.NodeID) bool {
	return g.removeEdgeByKey(entities.NewPairKey(a, b))
}

// HasEdgeBetween reports whether a and b are connected in either direction
func (g *Graph) HasEdgeBetween(a, b valueobjects.NodeID) bool {
	_, exists := g.edges[entities.NewPairKey(a, b)]
	return exists
}

// EdgeBetween returns the edge for the pair, if any
func (g *Graph) EdgeBetween(a, b valueobjects.NodeID) (*entities.Edge, bool) {
	edge, exists := g.edges[entities.NewPairKey(a, b)]
	return edge, exists
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		edges = append(edges, g.edges[key])
	}
	return edges
}

// IncidentEdges returns the edges touching nodeID
func (g *Graph) IncidentEdges(nodeID valueobjects.NodeID) []*entities.Edge {
	keys := g.adjacency[nodeID]
	edges := make([]*entities.Edge, 0, len(keys))
	for _, key := range keys {
		edges = append(edges, g.edges[key])
	}
	return edges
}

// Neighbors returns the distinct nodes adjacent to nodeID
func (g *Graph) Neighbors(nodeID valueobjects.NodeID) []valueobjects.NodeID {
	seen := make(map[valueobjects.NodeID]bool)
	var neighbors []valueobjects.NodeID
	for _, edge := range g.IncidentEdges(nodeID) {
		other := edge.Other(nodeID)
		if !seen[other] {
			seen[other] = true
			neighbors = append(neighbors, other)
		}
	}
	return neighbors
}

// SetNodePosition records the layout position of a node
func (g *Graph) SetNodePosition(nodeID valueobjects.NodeID, pos, velocity valueobjects.Position) error {
	node, exists := g.nodes[nodeID]
	if !exists {
		return pkgerrors.NewNotFoundError("node")
	}
	node.MoveTo(pos, velocity)
	return nil
}

// GetClusters returns the connected components in insertion order
func (g *Graph) GetClusters() [][]valueobjects.NodeID {
	visited := make(map[valueobjects.NodeID]bool)
	var clusters [][]valueobjects.NodeID

	for _, nodeID := range g.nodeOrder {
		if !visited[nodeID] {
			clusters = append(clusters, g.collect(nodeID, visited))
		}
	}

	return clusters
}

// Validate checks the structural invariants of the arena
func (g *Graph) Validate() error {
	if len(g.nodes) != len(g.nodeOrder) {
		return pkgerrors.NewValidationError("node count mismatch")
	}
	if len(g.edges) != len(g.edgeOrder) {
		return pkgerrors.NewValidationError("edge count mismatch")
	}

	for key, edge := range g.edges {
		if edge.Key() != key {
			return pkgerrors.NewValidationError("edge stored under wrong pair key")
		}
		if edge.SourceID.Equals(edge.TargetID) {
			return ErrSelfLoop
		}
		if _, sourceExists := g.nodes[edge.SourceID]; !sourceExists {
			return pkgerrors.NewValidationError("edge references non-existent source node")
		}
		if _, targetExists := g.nodes[edge.TargetID]; !targetExists {
			return pkgerrors.NewValidationError("edge references non-existent target node")
		}
	}

	return nil
}

func (g *Graph) removeEdgeByKey(key entities.PairKey) bool {
	edge, exists := g.edges[key]
	if !exists {
		return false
	}

	delete(g.edges, key)
	g.edgeOrder = removeKey(g.edgeOrder, key)
	g.adjacency[edge.SourceID] = removeKey(g.adjacency[edge.SourceID], key)
	g.adjacency[edge.TargetID] = removeKey(g.adjacency[edge.TargetID], key)
	return true
}

// collect walks the component containing start breadth first
func (g *Graph) collect(start valueobjects.NodeID, visited map[valueobjects.NodeID]bool) []valueobjects.NodeID {
	cluster := []valueobjects.NodeID{start}
	visited[start] = true

	for i := 0; i < len(cluster); i++ {
		for _, next := range g.Neighbors(cluster[i]) {
			if !visited[next] {
				visited[next] = true
				cluster = append(cluster, next)
			}
		}
	}

	return cluster
}

func removeKey(keys []entities.PairKey, key entities.PairKey) []entities.PairKey {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
