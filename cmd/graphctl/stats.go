package main

import (
	"kgview/domain/core/valueobjects"
	"kgview/domain/interaction"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var infer bool
	cmd := &cobra.Command{
		Use:   "stats [node-id...]",
		Short: "Print connection statistics for nodes",
		Long:  "Print degree, neighbors, direction counts, centrality and relationship types. With no node ids every node is listed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, _, err := a.buildGraph(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if infer {
				if _, err := a.applyInference(graph); err != nil {
					return err
				}
			}

			ids := graph.NodeIDs()
			if len(args) > 0 {
				ids = make([]valueobjects.NodeID, 0, len(args))
				for _, arg := range args {
					ids = append(ids, valueobjects.NodeID(arg))
				}
			}

			stats := make([]interaction.NodeStatistics, 0, len(ids))
			for _, id := range ids {
				s, err := interaction.ComputeStatistics(graph, id)
				if err != nil {
					return err
				}
				stats = append(stats, s)
			}
			return a.printJSON(stats)
		},
	}
	cmd.Flags().BoolVar(&infer, "infer", false, "include inferred edges")
	return cmd
}
