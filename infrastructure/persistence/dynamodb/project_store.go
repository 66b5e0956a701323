package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ideagraph/application/ports"
	"ideagraph/domain/core/aggregates"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const entityProject = "PROJECT"

// API is the subset of the DynamoDB client the store needs
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ProjectStore keeps one item per project under the owner's partition.
// Writes are conditional on the stored Version.
type ProjectStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

var _ ports.ProjectRepository = (*ProjectStore)(nil)

// projectItem is the DynamoDB item layout
type projectItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	aggregates.ProjectSnapshot
}

// NewProjectStore creates a new DynamoDB project store
func NewProjectStore(client API, tableName string, logger *zap.Logger) *ProjectStore {
	return &ProjectStore{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("dynamodb_project_store"),
	}
}

func userPK(owner string) string { return fmt.Sprintf("USER#%s", owner) }
func projectSK(id string) string { return fmt.Sprintf("PROJECT#%s", id) }

func key(owner, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(owner)},
		"SK": &types.AttributeValueMemberS{Value: projectSK(id)},
	}
}

func toItem(snap aggregates.ProjectSnapshot) (map[string]types.AttributeValue, error) {
	item := projectItem{
		PK:              userPK(snap.Owner),
		SK:              projectSK(snap.ID),
		EntityType:      entityProject,
		ProjectSnapshot: snap,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	return av, nil
}

func fromItem(av map[string]types.AttributeValue) (*aggregates.Project, error) {
	var item projectItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return aggregates.ReconstructProject(item.ProjectSnapshot)
}

// Create stores a new project at version 1; the item must not exist yet
func (s *ProjectStore) Create(ctx context.Context, project *aggregates.Project) error {
	snap := project.Snapshot()
	snap.Version = 1
	av, err := toItem(snap)
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError(fmt.Sprintf("project %s already exists", snap.ID))
		}
		s.logger.Error("Failed to create project",
			zap.String("projectID", snap.ID),
			zap.Error(err),
		)
		return translateError(err, "create project")
	}

	project.MarkPersisted(1)
	s.logger.Debug("Project created",
		zap.String("projectID", snap.ID),
		zap.String("owner", snap.Owner),
	)
	return nil
}

// Get reads a project by owner and id; the key itself enforces ownership
func (s *ProjectStore) Get(ctx context.Context, id, owner string) (*aggregates.Project, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(owner, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, translateError(err, "get project")
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	return fromItem(out.Item)
}

// List queries the owner's partition, newest first
func (s *ProjectStore) List(ctx context.Context, owner string) ([]*aggregates.Project, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(owner))).
		And(expression.Key("SK").BeginsWith("PROJECT#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	projects := make([]*aggregates.Project, 0)
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, translateError(err, "list projects")
		}
		for _, av := range out.Items {
			p, err := fromItem(av)
			if err != nil {
				s.logger.Warn("Skipping unreadable project item", zap.Error(err))
				continue
			}
			projects = append(projects, p)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].CreatedAt().Equal(projects[j].CreatedAt()) {
			return projects[i].ID() > projects[j].ID()
		}
		return projects[i].CreatedAt().After(projects[j].CreatedAt())
	})
	return projects, nil
}

// Save overwrites the project when the stored Version still equals the one it was loaded at
func (s *ProjectStore) Save(ctx context.Context, project *aggregates.Project) error {
	expected := project.Version()
	snap := project.Snapshot()
	snap.Version = expected + 1
	av, err := toItem(snap)
	if err != nil {
		return err
	}

	condition := expression.Name("PK").AttributeExists().
		And(expression.Name("Version").Equal(expression.Value(expected)))
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ports.ErrVersionConflict
		}
		return translateError(err, "save project")
	}

	project.MarkPersisted(snap.Version)
	return nil
}
