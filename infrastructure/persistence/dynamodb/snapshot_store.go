// Package dynamodb stores graph snapshots in a single DynamoDB table. Every
// node and edge of one graph lives under the partition USER#<id>.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kgview/domain/core/valueobjects"
	"kgview/domain/snapshot"
	pkgerrors "kgview/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	nodePrefix = "NODE#"
	edgePrefix = "EDGE#"

	// BatchWriteItem accepts at most 25 requests
	batchSize = 25
)

// Client is the subset of the DynamoDB API the store uses
type Client interface {
	dynamodb.QueryAPIClient
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// nodeItem represents a node item in DynamoDB
type nodeItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	NodeID     string   `dynamodbav:"NodeID"`
	Label      string   `dynamodbav:"Label,omitempty"`
	Category   string   `dynamodbav:"Category,omitempty"`
	Importance *float64 `dynamodbav:"Importance,omitempty"`
	Confidence *float64 `dynamodbav:"Confidence,omitempty"`
	Recency    *float64 `dynamodbav:"Recency,omitempty"`
	KeyPhrases []string `dynamodbav:"KeyPhrases,omitempty"`
	Content    string   `dynamodbav:"Content,omitempty"`
	Summary    string   `dynamodbav:"Summary,omitempty"`
	X          *float64 `dynamodbav:"X,omitempty"`
	Y          *float64 `dynamodbav:"Y,omitempty"`
	Z          *float64 `dynamodbav:"Z,omitempty"`
	SearchText string   `dynamodbav:"SearchText"`
}

// edgeItem represents an edge item in DynamoDB
type edgeItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	SourceID   string   `dynamodbav:"SourceID"`
	TargetID   string   `dynamodbav:"TargetID"`
	Type       string   `dynamodbav:"Type,omitempty"`
	Strength   *float64 `dynamodbav:"Strength,omitempty"`
	Confidence *float64 `dynamodbav:"Confidence,omitempty"`
	Label      string   `dynamodbav:"Label,omitempty"`
}

// SnapshotStore reads and writes snapshots for one graph owner
type SnapshotStore struct {
	client    Client
	tableName string
	userID    string
	logger    *zap.Logger
}

// NewSnapshotStore creates a store bound to a table and graph owner
func NewSnapshotStore(client Client, tableName, userID string, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{client: client, tableName: tableName, userID: userID, logger: logger}
}

func (s *SnapshotStore) partitionKey() string {
	return "USER#" + s.userID
}

// Fetch loads every node and edge of the graph
func (s *SnapshotStore) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.load(ctx, "")
}

// Query loads the nodes whose label, content or key phrases contain text,
// plus the edges between them
func (s *SnapshotStore) Query(ctx context.Context, text string) (*snapshot.Snapshot, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return s.Fetch(ctx)
	}
	return s.load(ctx, text)
}

func (s *SnapshotStore) load(ctx context.Context, search string) (*snapshot.Snapshot, error) {
	var nodes []nodeItem
	var edges []edgeItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var filter *expression.ConditionBuilder
		if search != "" {
			cond := expression.Name("SearchText").Contains(search)
			filter = &cond
		}
		items, err := s.queryPrefix(gctx, nodePrefix, filter)
		if err != nil {
			return err
		}
		nodes, err = unmarshalItems[nodeItem](items)
		return err
	})
	g.Go(func() error {
		items, err := s.queryPrefix(gctx, edgePrefix, nil)
		if err != nil {
			return err
		}
		edges, err = unmarshalItems[edgeItem](items)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{Nodes: make([]snapshot.RawNode, 0, len(nodes))}
	kept := make(map[string]bool, len(nodes))
	for _, item := range nodes {
		kept[item.NodeID] = true
		snap.Nodes = append(snap.Nodes, item.toRaw())
	}
	for _, item := range edges {
		// a filtered load only keeps edges between matched nodes
		if search != "" && (!kept[item.SourceID] || !kept[item.TargetID]) {
			continue
		}
		snap.Links = append(snap.Links, item.toRaw())
	}

	s.logger.Debug("Loaded snapshot from DynamoDB",
		zap.String("table", s.tableName),
		zap.String("search", search),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Links)),
	)
	return snap, nil
}

func (s *SnapshotStore) queryPrefix(ctx context.Context, prefix string, filter *expression.ConditionBuilder) ([]map[string]types.AttributeValue, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(s.partitionKey())).
		And(expression.Key("SK").BeginsWith(prefix))

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build query expression").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if filter != nil {
		input.FilterExpression = expr.Filter()
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyError("Query", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// Save writes every node and edge of snap under the owner's partition
func (s *SnapshotStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return pkgerrors.NewValidationError("snapshot is required")
	}

	requests := make([]types.WriteRequest, 0, len(snap.Nodes)+len(snap.AllEdges()))
	for _, node := range snap.Nodes {
		av, err := attributevalue.MarshalMap(newNodeItem(s.partitionKey(), node))
		if err != nil {
			return fmt.Errorf("failed to marshal node %s: %w", node.ID, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	for _, edge := range snap.AllEdges() {
		av, err := attributevalue.MarshalMap(newEdgeItem(s.partitionKey(), edge))
		if err != nil {
			return fmt.Errorf("failed to marshal edge %s->%s: %w", edge.Source, edge.Target, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for start := 0; start < len(requests); start += batchSize {
		end := start + batchSize
		if end > len(requests) {
			end = len(requests)
		}
		if err := s.writeBatch(ctx, requests[start:end]); err != nil {
			return err
		}
	}

	s.logger.Info("Saved snapshot to DynamoDB",
		zap.String("table", s.tableName),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("items", len(requests)),
	)
	return nil
}

func (s *SnapshotStore) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.tableName: batch}
	for attempt := 0; attempt < 5 && len(pending[s.tableName]) > 0; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return classifyError("BatchWriteItem", err)
		}
		pending = out.UnprocessedItems
	}
	if left := len(pending[s.tableName]); left > 0 {
		return pkgerrors.NewUnavailableError("dynamodb", fmt.Errorf("%d items left unprocessed", left))
	}
	return nil
}

func unmarshalItems[T any](items []map[string]types.AttributeValue) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item, &v); err != nil {
			return nil, pkgerrors.NewValidationError("malformed item in snapshot table").WithCause(err)
		}
		out = append(out, v)
	}
	return out, nil
}

// classifyError maps DynamoDB API errors onto application errors
func classifyError(operation string, err error) error {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return pkgerrors.NewUnavailableError("dynamodb", fmt.Errorf("%s: %w", operation, err))
	}

	switch ae.ErrorCode() {
	case "ResourceNotFoundException":
		return pkgerrors.NewUnavailableError("dynamodb", err).WithCode("TABLE_NOT_FOUND")
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return pkgerrors.NewUnavailableError("dynamodb", err).WithCode("THROTTLED")
	case "InternalServerError", "ServiceUnavailable":
		return pkgerrors.NewUnavailableError("dynamodb", err)
	default:
		return pkgerrors.NewExternalError("dynamodb", err).WithCode(ae.ErrorCode())
	}
}

func newNodeItem(pk string, n snapshot.RawNode) nodeItem {
	search := strings.ToLower(strings.Join(append([]string{n.Label, n.Content, n.Summary}, n.KeyPhrases...), " "))
	return nodeItem{
		PK:         pk,
		SK:         nodePrefix + string(n.ID),
		EntityType: "NODE",
		NodeID:     string(n.ID),
		Label:      n.Label,
		Category:   n.Category,
		Importance: n.Importance,
		Confidence: n.Confidence,
		Recency:    n.Recency,
		KeyPhrases: n.KeyPhrases,
		Content:    n.Content,
		Summary:    n.Summary,
		X:          n.X,
		Y:          n.Y,
		Z:          n.Z,
		SearchText: search,
	}
}

func (i nodeItem) toRaw() snapshot.RawNode {
	return snapshot.RawNode{
		ID:         valueobjects.NodeID(i.NodeID),
		Label:      i.Label,
		Category:   i.Category,
		Importance: i.Importance,
		Confidence: i.Confidence,
		Recency:    i.Recency,
		KeyPhrases: i.KeyPhrases,
		Content:    i.Content,
		Summary:    i.Summary,
		X:          i.X,
		Y:          i.Y,
		Z:          i.Z,
	}
}

func newEdgeItem(pk string, e snapshot.RawEdge) edgeItem {
	return edgeItem{
		PK:         pk,
		SK:         fmt.Sprintf("%s%s#%s", edgePrefix, e.Source, e.Target),
		EntityType: "EDGE",
		SourceID:   string(e.Source),
		TargetID:   string(e.Target),
		Type:       e.Type,
		Strength:   e.Strength,
		Confidence: e.Confidence,
		Label:      e.Label,
	}
}

func (i edgeItem) toRaw() snapshot.RawEdge {
	return snapshot.RawEdge{
		Source:     valueobjects.NodeID(i.SourceID),
		Target:     valueobjects.NodeID(i.TargetID),
		Type:       i.Type,
		Strength:   i.Strength,
		Confidence: i.Confidence,
		Label:      i.Label,
	}
}
