package doctors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/docpoint/platform/pkg/logging"
)

// Guard records reserving an email address live in the same table under a
// prefixed id, keeping Create a pair of conditional writes.
const emailGuardPrefix = "email#"

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository persists doctors to DynamoDB.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("doctors: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("doctors: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Create registers a doctor, available by default. The email guard record is
// written first under a condition, so concurrent registrations of the same
// address cannot both win.
func (r *DynamoRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doctor := &Doctor{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Image:      req.Image,
		Speciality: req.Speciality,
		Degree:     req.Degree,
		Experience: req.Experience,
		About:      req.About,
		Fees:       req.Fees,
		Address:    req.Address,
		Available:  true,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"id":    &types.AttributeValueMemberS{Value: emailGuardPrefix + req.Email},
			"docId": &types.AttributeValueMemberS{Value: doctor.ID},
		},
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("doctors: reserve email: %w", err)
	}

	item, err := attributevalue.MarshalMap(doctor)
	if err != nil {
		return nil, fmt.Errorf("doctors: marshal doctor: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("doctors: persist doctor: %w", err)
	}
	return doctor, nil
}

// GetByID retrieves a doctor by ID.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("doctors: fetch doctor %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrDoctorNotFound
	}

	var doctor Doctor
	if err := attributevalue.UnmarshalMap(out.Item, &doctor); err != nil {
		return nil, fmt.Errorf("doctors: decode doctor: %w", err)
	}
	return &doctor, nil
}

// List returns all doctors. The roster is small enough for a scan.
func (r *DynamoRepository) List(ctx context.Context) ([]*Doctor, error) {
	var out []*Doctor
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("NOT begins_with(id, :guard)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":guard": &types.AttributeValueMemberS{Value: emailGuardPrefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("doctors: scan doctors: %w", err)
		}
		for _, item := range page.Items {
			var doctor Doctor
			if err := attributevalue.UnmarshalMap(item, &doctor); err != nil {
				return nil, fmt.Errorf("doctors: decode doctor: %w", err)
			}
			out = append(out, &doctor)
		}
		if page.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = page.LastEvaluatedKey
	}
}

// SetAvailability flips the bookable flag.
func (r *DynamoRepository) SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error) {
	return r.update(ctx, id,
		"SET available = :avail",
		map[string]types.AttributeValue{
			":avail": &types.AttributeValueMemberBOOL{Value: available},
		}, nil)
}

// UpdateProfile applies the editable profile fields.
func (r *DynamoRepository) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	expr := ""
	values := map[string]types.AttributeValue{}
	names := map[string]string{}

	add := func(clause string) {
		if expr == "" {
			expr = "SET " + clause
			return
		}
		expr += ", " + clause
	}
	if req.About != nil {
		add("about = :about")
		values[":about"] = &types.AttributeValueMemberS{Value: *req.About}
	}
	if req.Fees != nil {
		add("fees = :fees")
		values[":fees"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *req.Fees)}
	}
	if req.Address != nil {
		addr, err := attributevalue.Marshal(*req.Address)
		if err != nil {
			return nil, fmt.Errorf("doctors: marshal address: %w", err)
		}
		add("address = :addr")
		values[":addr"] = addr
	}
	if req.Available != nil {
		add("available = :avail")
		values[":avail"] = &types.AttributeValueMemberBOOL{Value: *req.Available}
	}
	if expr == "" {
		return r.GetByID(ctx, id)
	}
	if len(names) == 0 {
		names = nil
	}
	return r.update(ctx, id, expr, values, names)
}

func (r *DynamoRepository) update(ctx context.Context, id, expr string, values map[string]types.AttributeValue, names map[string]string) (*Doctor, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: update doctor %s: %w", id, err)
	}

	var doctor Doctor
	if err := attributevalue.UnmarshalMap(out.Attributes, &doctor); err != nil {
		return nil, fmt.Errorf("doctors: decode doctor: %w", err)
	}
	return &doctor, nil
}
