package main

import (
	"kgview/domain/core/aggregates"
	"kgview/domain/core/valueobjects"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type candidateOutput struct {
	Source     valueobjects.NodeID           `json:"source"`
	Target     valueobjects.NodeID           `json:"target"`
	Type       valueobjects.RelationshipType `json:"type"`
	Similarity float64                       `json:"similarity"`
	Strength   float64                       `json:"strength"`
	Confidence float64                       `json:"confidence"`
	Reason     string                        `json:"reason"`
}

type inferResult struct {
	Nodes      int               `json:"nodes"`
	Edges      int               `json:"edges"`
	Candidates []candidateOutput `json:"candidates"`
}

func newInferCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Print the relationships inferred from shared key phrases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, _, err := a.buildGraph(cmd.InOrStdin())
			if err != nil {
				return err
			}
			inferencer := a.inferencer()
			candidates, err := inferencer.Infer(graph)
			if err != nil {
				return err
			}
			candidates = inferencer.RankCandidates(candidates)
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}

			result := inferResult{
				Nodes:      graph.NodeCount(),
				Edges:      graph.EdgeCount(),
				Candidates: make([]candidateOutput, 0, len(candidates)),
			}
			for _, c := range candidates {
				result.Candidates = append(result.Candidates, candidateOutput{
					Source:     c.SourceID,
					Target:     c.TargetID,
					Type:       c.Type,
					Similarity: c.Similarity,
					Strength:   c.Strength,
					Confidence: c.Confidence,
					Reason:     c.Reason,
				})
			}
			return a.printJSON(result)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "print at most this many candidates (0 prints all)")
	return cmd
}

// applyInference adds every inferred edge to graph and returns how many were added
func (a *app) applyInference(graph *aggregates.Graph) (int, error) {
	inferencer := a.inferencer()
	candidates, err := inferencer.Infer(graph)
	if err != nil {
		return 0, err
	}
	added, err := inferencer.Apply(graph, candidates)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("Applied inferred edges", zap.Int("candidates", len(candidates)), zap.Int("added", added))
	return added, nil
}
