// Package interaction holds session-local selection state and the per-node
// statistics shown for the selected node.
package interaction

import (
	"sort"

	"kgview/domain/core/aggregates"
	"kgview/domain/core/valueobjects"
)

// NodeStatistics summarises the neighbourhood of one node
type NodeStatistics struct {
	NodeID              valueobjects.NodeID             `json:"nodeId"`
	Degree              int                             `json:"degree"`
	Neighbors           int                             `json:"neighbors"`
	IncomingConnections int                             `json:"incomingConnections"`
	OutgoingConnections int                             `json:"outgoingConnections"`
	Centrality          float64                         `json:"centrality"`
	AvgLinkStrength     float64                         `json:"avgLinkStrength"`
	RelationshipTypes   []valueobjects.RelationshipType `json:"relationshipTypes"`
}

// ComputeStatistics derives the statistics of nodeID from the current graph.
// Centrality is neighbors/(n-1) and is 0 for a single-node graph.
func ComputeStatistics(graph *aggregates.Graph, nodeID valueobjects.NodeID) (NodeStatistics, error) {
	if _, err := graph.GetNode(nodeID); err != nil {
		return NodeStatistics{}, err
	}

	stats := NodeStatistics{
		NodeID:            nodeID,
		RelationshipTypes: []valueobjects.RelationshipType{},
	}

	edges := graph.IncidentEdges(nodeID)
	stats.Degree = len(edges)
	stats.Neighbors = len(graph.Neighbors(nodeID))

	types := make(map[valueobjects.RelationshipType]bool)
	var total float64
	for _, edge := range edges {
		if edge.TargetID.Equals(nodeID) {
			stats.IncomingConnections++
		} else {
			stats.OutgoingConnections++
		}
		total += edge.Strength
		if !types[edge.Type] {
			types[edge.Type] = true
			stats.RelationshipTypes = append(stats.RelationshipTypes, edge.Type)
		}
	}

	if stats.Degree > 0 {
		stats.AvgLinkStrength = total / float64(stats.Degree)
	}
	if n := graph.NodeCount(); n > 1 {
		stats.Centrality = float64(stats.Neighbors) / float64(n-1)
	}

	sort.Slice(stats.RelationshipTypes, func(i, j int) bool {
		return stats.RelationshipTypes[i] < stats.RelationshipTypes[j]
	})
	return stats, nil
}
