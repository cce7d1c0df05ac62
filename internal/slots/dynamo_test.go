package slots

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/docpoint/platform/pkg/logging"
)

type mockDynamo struct {
	updateInputs []*dynamodb.UpdateItemInput
	updateErr    error
	getOutput    *dynamodb.GetItemOutput
	getErr       error
	queryOutput  *dynamodb.QueryOutput
	queryErr     error
}

func (m *mockDynamo) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, input)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryOutput == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return m.queryOutput, nil
}

func TestDynamoLedger_ReserveUsesConditionalAdd(t *testing.T) {
	mock := &mockDynamo{}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	if err := ledger.Reserve(context.Background(), "doc-1", "05_03_2025", "10:00 AM"); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	if len(mock.updateInputs) != 1 {
		t.Fatalf("expected 1 update call, got %d", len(mock.updateInputs))
	}
	update := mock.updateInputs[0]

	if expr := update.ConditionExpression; expr == nil || *expr != "attribute_not_exists(#times) OR NOT contains(#times, :time)" {
		t.Fatalf("expected membership condition to close the race window, got %v", expr)
	}
	if expr := update.UpdateExpression; expr == nil || *expr != "ADD #times :slot" {
		t.Fatalf("expected set ADD, got %v", expr)
	}
	slot, ok := update.ExpressionAttributeValues[":slot"].(*types.AttributeValueMemberSS)
	if !ok || len(slot.Value) != 1 || slot.Value[0] != "10:00 AM" {
		t.Fatalf("unexpected :slot value: %#v", update.ExpressionAttributeValues[":slot"])
	}
	key := update.Key["doctorId"].(*types.AttributeValueMemberS)
	if key.Value != "doc-1" {
		t.Fatalf("unexpected key: %#v", update.Key)
	}
}

func TestDynamoLedger_ReserveConflict(t *testing.T) {
	mock := &mockDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	err := ledger.Reserve(context.Background(), "doc-1", "05_03_2025", "10:00 AM")
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestDynamoLedger_ReservePropagatesStoreError(t *testing.T) {
	mock := &mockDynamo{updateErr: errors.New("dynamo down")}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	err := ledger.Reserve(context.Background(), "doc-1", "05_03_2025", "10:00 AM")
	if err == nil || errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestDynamoLedger_ReleaseDeletesFromSet(t *testing.T) {
	mock := &mockDynamo{}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	if err := ledger.Release(context.Background(), "doc-1", "05_03_2025", "10:00 AM"); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	update := mock.updateInputs[0]
	if expr := update.UpdateExpression; expr == nil || *expr != "DELETE #times :slot" {
		t.Fatalf("expected set DELETE, got %v", expr)
	}
}

func TestDynamoLedger_ReleaseMissingItemIsNoOp(t *testing.T) {
	mock := &mockDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	if err := ledger.Release(context.Background(), "doc-1", "05_03_2025", "10:00 AM"); err != nil {
		t.Fatalf("expected release of missing item to be a no-op, got %v", err)
	}
}

func TestDynamoLedger_IsFree(t *testing.T) {
	mock := &mockDynamo{
		getOutput: &dynamodb.GetItemOutput{
			Item: map[string]types.AttributeValue{
				"doctorId": &types.AttributeValueMemberS{Value: "doc-1"},
				"date":     &types.AttributeValueMemberS{Value: "05_03_2025"},
				"times":    &types.AttributeValueMemberSS{Value: []string{"10:00 AM"}},
			},
		},
	}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	free, err := ledger.IsFree(context.Background(), "doc-1", "05_03_2025", "10:00 AM")
	if err != nil {
		t.Fatalf("IsFree returned error: %v", err)
	}
	if free {
		t.Fatal("expected booked slot")
	}

	free, err = ledger.IsFree(context.Background(), "doc-1", "05_03_2025", "11:00 AM")
	if err != nil {
		t.Fatalf("IsFree returned error: %v", err)
	}
	if !free {
		t.Fatal("expected free slot")
	}
}

func TestDynamoLedger_BookedByDate(t *testing.T) {
	mock := &mockDynamo{
		queryOutput: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{
					"doctorId": &types.AttributeValueMemberS{Value: "doc-1"},
					"date":     &types.AttributeValueMemberS{Value: "05_03_2025"},
					"times":    &types.AttributeValueMemberSS{Value: []string{"02:30 PM", "10:00 AM"}},
				},
				{
					"doctorId": &types.AttributeValueMemberS{Value: "doc-1"},
					"date":     &types.AttributeValueMemberS{Value: "06_03_2025"},
					"times":    &types.AttributeValueMemberSS{Value: []string{"09:00 AM"}},
				},
			},
		},
	}
	ledger := NewDynamoLedger(mock, "slot_reservations", logging.Default())

	byDate, err := ledger.BookedByDate(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("BookedByDate returned error: %v", err)
	}
	day := byDate["05_03_2025"]
	if len(day) != 2 || day[0] != "10:00 AM" || day[1] != "02:30 PM" {
		t.Fatalf("expected chronological times, got %v", day)
	}
	if len(byDate["06_03_2025"]) != 1 {
		t.Fatalf("unexpected ledger: %v", byDate)
	}
}
