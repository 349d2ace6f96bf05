package main

import (
	"context"
	"fmt"

	"kgview/domain/snapshot"
	"kgview/infrastructure/config"
	"kgview/infrastructure/di"
	"kgview/infrastructure/persistence/dynamodb"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(a *app) *cobra.Command {
	var table, userID string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a snapshot into the DynamoDB knowledge store",
		Long: `Write the nodes and edges of a snapshot file (or the built-in sample) into the
DynamoDB table read by the dynamodb snapshot source. Intended for development
tables; existing items with the same keys are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.readSnapshot(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if snap == nil {
				snap = snapshot.FallbackSample()
			}
			if snap.IsEmpty() {
				return fmt.Errorf("snapshot has no nodes")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			saver, err := a.newSaver(ctx, table, userID)
			if err != nil {
				return err
			}
			if err := saver.Save(ctx, snap); err != nil {
				return err
			}

			a.logger.Info("Snapshot seeded",
				zap.Int("nodes", len(snap.Nodes)),
				zap.Int("edges", len(snap.AllEdges())),
			)
			fmt.Fprintf(a.out, "seeded %d nodes and %d edges\n", len(snap.Nodes), len(snap.AllEdges()))
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "DynamoDB table (default from TABLE_NAME)")
	cmd.Flags().StringVar(&userID, "user", "", "graph owner id (default from GRAPH_USER_ID)")
	return cmd
}

// dynamoSaver builds a snapshot store from the environment configuration
func (a *app) dynamoSaver(ctx context.Context, table, userID string) (snapshotSaver, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = cfg.DynamoDBTable
	}
	if userID == "" {
		userID = cfg.GraphUserID
	}
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewSnapshotStore(di.ProvideDynamoDBClient(awsCfg), table, userID, a.logger), nil
}
