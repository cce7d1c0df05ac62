package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/docpoint/platform/pkg/logging"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoLedger stores one item per (doctorID, date) with a string-set
// `times` attribute holding the booked time strings. All mutations go
// through conditional updates so the booked check and the write are a
// single atomic operation.
type DynamoLedger struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Ledger = (*DynamoLedger)(nil)

// NewDynamoLedger builds a ledger backed by the provided DynamoDB client.
func NewDynamoLedger(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoLedger {
	if client == nil {
		panic("slots: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("slots: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoLedger{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func slotKey(doctorID, date string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"doctorId": &types.AttributeValueMemberS{Value: doctorID},
		"date":     &types.AttributeValueMemberS{Value: date},
	}
}

// Reserve adds the time to the day's booked set, failing with
// ErrSlotConflict when it is already present.
func (l *DynamoLedger) Reserve(ctx context.Context, doctorID, date, timeStr string) error {
	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(l.tableName),
		Key:                 slotKey(doctorID, date),
		UpdateExpression:    aws.String("ADD #times :slot"),
		ConditionExpression: aws.String("attribute_not_exists(#times) OR NOT contains(#times, :time)"),
		ExpressionAttributeNames: map[string]string{
			"#times": "times",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slot": &types.AttributeValueMemberSS{Value: []string{timeStr}},
			":time": &types.AttributeValueMemberS{Value: timeStr},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrSlotConflict
		}
		return fmt.Errorf("slots: reserve %s %s for doctor %s: %w", date, timeStr, doctorID, err)
	}
	return nil
}

// Release removes the time from the day's booked set. Releasing a slot that
// is not booked is a no-op; a ledger item is never created by a release.
func (l *DynamoLedger) Release(ctx context.Context, doctorID, date, timeStr string) error {
	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(l.tableName),
		Key:                 slotKey(doctorID, date),
		UpdateExpression:    aws.String("DELETE #times :slot"),
		ConditionExpression: aws.String("attribute_exists(doctorId)"),
		ExpressionAttributeNames: map[string]string{
			"#times": "times",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slot": &types.AttributeValueMemberSS{Value: []string{timeStr}},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("slots: release %s %s for doctor %s: %w", date, timeStr, doctorID, err)
	}
	return nil
}

// IsFree reports whether the slot is not currently booked.
func (l *DynamoLedger) IsFree(ctx context.Context, doctorID, date, timeStr string) (bool, error) {
	booked, err := l.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return false, err
	}
	for _, t := range booked {
		if t == timeStr {
			return false, nil
		}
	}
	return true, nil
}

// BookedTimes returns the booked times for one day, chronologically ordered.
func (l *DynamoLedger) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key:       slotKey(doctorID, date),
	})
	if err != nil {
		return nil, fmt.Errorf("slots: fetch %s for doctor %s: %w", date, doctorID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return timesFromItem(out.Item), nil
}

// BookedByDate returns the full ledger for a doctor as date -> booked times.
func (l *DynamoLedger) BookedByDate(ctx context.Context, doctorID string) (map[string][]string, error) {
	out, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("doctorId = :doc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":doc": &types.AttributeValueMemberS{Value: doctorID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("slots: query ledger for doctor %s: %w", doctorID, err)
	}

	ledger := make(map[string][]string, len(out.Items))
	for _, item := range out.Items {
		dateAttr, ok := item["date"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		ledger[dateAttr.Value] = timesFromItem(item)
	}
	return ledger, nil
}

func timesFromItem(item map[string]types.AttributeValue) []string {
	set, ok := item["times"].(*types.AttributeValueMemberSS)
	if !ok || len(set.Value) == 0 {
		return nil
	}
	times := make([]string, len(set.Value))
	copy(times, set.Value)
	sortTimes(times)
	return times
}
