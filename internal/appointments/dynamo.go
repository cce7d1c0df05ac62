package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/docpoint/platform/pkg/logging"
)

const (
	userIndex = "userId-index"
	docIndex  = "docId-index"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository stores appointments keyed by id, with userId-index and
// docId-index GSIs for the per-patient and per-doctor listings. Lifecycle
// flags are flipped with conditional updates so a transition can never be
// applied twice or after a conflicting one.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("appointments: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func apptKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (r *DynamoRepository) Create(ctx context.Context, appt *Appointment) error {
	item, err := attributevalue.MarshalMap(appt)
	if err != nil {
		return fmt.Errorf("appointments: marshal appointment %s: %w", appt.ID, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("appointments: create appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       apptKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: fetch appointment %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrAppointmentNotFound
	}
	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	switch {
	case filter.UserID != "":
		return r.queryIndex(ctx, userIndex, "userId", filter.UserID)
	case filter.DocID != "":
		return r.queryIndex(ctx, docIndex, "docId", filter.DocID)
	default:
		return r.scanAll(ctx)
	}
}

func (r *DynamoRepository) queryIndex(ctx context.Context, index, keyAttr, value string) ([]*Appointment, error) {
	var (
		appts   []*Appointment
		lastKey map[string]types.AttributeValue
	)
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(index),
			KeyConditionExpression: aws.String("#k = :v"),
			ExpressionAttributeNames: map[string]string{
				"#k": keyAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: value},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: query %s for %s: %w", index, value, err)
		}
		page, err := unmarshalAppointments(out.Items)
		if err != nil {
			return nil, err
		}
		appts = append(appts, page...)
		if out.LastEvaluatedKey == nil {
			return appts, nil
		}
		lastKey = out.LastEvaluatedKey
	}
}

func (r *DynamoRepository) scanAll(ctx context.Context) ([]*Appointment, error) {
	var (
		appts   []*Appointment
		lastKey map[string]types.AttributeValue
	)
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: scan appointments: %w", err)
		}
		page, err := unmarshalAppointments(out.Items)
		if err != nil {
			return nil, err
		}
		appts = append(appts, page...)
		if out.LastEvaluatedKey == nil {
			return appts, nil
		}
		lastKey = out.LastEvaluatedKey
	}
}

func unmarshalAppointments(items []map[string]types.AttributeValue) ([]*Appointment, error) {
	appts := make([]*Appointment, 0, len(items))
	for _, item := range items {
		var appt Appointment
		if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
			return nil, fmt.Errorf("appointments: unmarshal listed appointment: %w", err)
		}
		appts = append(appts, &appt)
	}
	return appts, nil
}

func (r *DynamoRepository) MarkCancelled(ctx context.Context, id string) (*Appointment, error) {
	return r.transition(ctx, id,
		"SET cancelled = :on",
		"attribute_exists(id) AND cancelled = :off AND isCompleted = :off",
	)
}

func (r *DynamoRepository) MarkCompleted(ctx context.Context, id string) (*Appointment, error) {
	return r.transition(ctx, id,
		"SET isCompleted = :on",
		"attribute_exists(id) AND cancelled = :off AND isCompleted = :off",
	)
}

func (r *DynamoRepository) MarkPaid(ctx context.Context, id string) (*Appointment, error) {
	return r.transition(ctx, id,
		"SET paid = :on",
		"attribute_exists(id) AND cancelled = :off AND paid = :off",
	)
}

// transition applies one conditional flag update. The condition failure item
// tells missing appointments apart from disallowed states: DynamoDB returns
// the old item only when the item exists.
func (r *DynamoRepository) transition(ctx context.Context, id, update, condition string) (*Appointment, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 apptKey(id),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String(condition),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":on":  &types.AttributeValueMemberBOOL{Value: true},
			":off": &types.AttributeValueMemberBOOL{Value: false},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			if len(conditionFailed.Item) == 0 {
				return nil, ErrAppointmentNotFound
			}
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("appointments: update appointment %s: %w", id, err)
	}
	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Attributes, &appt); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal updated appointment %s: %w", id, err)
	}
	return &appt, nil
}
