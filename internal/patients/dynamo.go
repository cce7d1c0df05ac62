package patients

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

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoRepository persists patients to DynamoDB.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("patients: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("patients: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Create registers a patient profile.
func (r *DynamoRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient := &Patient{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}

	item, err := attributevalue.MarshalMap(patient)
	if err != nil {
		return nil, fmt.Errorf("patients: marshal patient: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("patients: persist patient: %w", err)
	}
	return patient, nil
}

// GetByID retrieves a patient by ID.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("patients: fetch patient %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrPatientNotFound
	}

	var patient Patient
	if err := attributevalue.UnmarshalMap(out.Item, &patient); err != nil {
		return nil, fmt.Errorf("patients: decode patient: %w", err)
	}
	return &patient, nil
}

// UpdateProfile applies the editable profile fields.
func (r *DynamoRepository) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Patient, error) {
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
	if req.Name != nil {
		add("#name = :name")
		names["#name"] = "name"
		values[":name"] = &types.AttributeValueMemberS{Value: *req.Name}
	}
	if req.Phone != nil {
		add("phone = :phone")
		values[":phone"] = &types.AttributeValueMemberS{Value: *req.Phone}
	}
	if req.Gender != nil {
		add("gender = :gender")
		values[":gender"] = &types.AttributeValueMemberS{Value: *req.Gender}
	}
	if req.BirthDate != nil {
		add("dob = :dob")
		values[":dob"] = &types.AttributeValueMemberS{Value: *req.BirthDate}
	}
	if req.Address != nil {
		addr, err := attributevalue.Marshal(*req.Address)
		if err != nil {
			return nil, fmt.Errorf("patients: marshal address: %w", err)
		}
		add("address = :addr")
		values[":addr"] = addr
	}
	if expr == "" {
		return r.GetByID(ctx, id)
	}
	if len(names) == 0 {
		names = nil
	}

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
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: update patient %s: %w", id, err)
	}

	var patient Patient
	if err := attributevalue.UnmarshalMap(out.Attributes, &patient); err != nil {
		return nil, fmt.Errorf("patients: decode patient: %w", err)
	}
	return &patient, nil
}
