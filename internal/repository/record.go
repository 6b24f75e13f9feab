package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/copple/planner/internal/model"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record id already exists")
)

// DynamoAPI is the part of *dynamodb.Client the repository needs.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type RecordRepository interface {
	Create(ctx context.Context, record model.Record) error
	ByID(ctx context.Context, id, ownerID string, kind model.Kind) (model.Record, error)
	Records(ctx context.Context, ownerID string, kind model.Kind) ([]model.Record, error)
	Update(ctx context.Context, id, ownerID string, plan *MutationPlan) error
	Delete(ctx context.Context, id, ownerID string, kind model.Kind) error
}

type recordRepository struct {
	client DynamoAPI
	table  string
}

func NewRecordRepository(client DynamoAPI, table string) RecordRepository {
	return &recordRepository{client: client, table: table}
}

func (r *recordRepository) Create(ctx context.Context, record model.Record) error {
	item, err := EncodeItem(record)
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(FieldID.Attr))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build put condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

// ByID returns the record only when it belongs to ownerID and has kind.
// Ownership is checked on the raw item, before decoding.
func (r *recordRepository) ByID(ctx context.Context, id, ownerID string, kind model.Kind) (model.Record, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if len(out.Item) == 0 || !matches(out.Item, ownerID, kind) {
		return nil, ErrRecordNotFound
	}

	return DecodeItem(out.Item)
}

// Records scans every page of the table for the owner's records of kind.
// Order is whatever the scan returns.
func (r *recordRepository) Records(ctx context.Context, ownerID string, kind model.Kind) ([]model.Record, error) {
	expr, err := expression.NewBuilder().WithFilter(ownedBy(ownerID, kind)).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	records := []model.Record{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan items: %w", err)
		}
		for _, item := range page.Items {
			rec, err := DecodeItem(item)
			if err != nil {
				slog.Warn("skipping corrupt item", "error", err, "owner_id", ownerID, "kind", kind)
				continue
			}
			records = append(records, rec)
		}
	}

	return records, nil
}

// Update applies plan to the record only if it exists, belongs to ownerID
// and has the plan's kind.
func (r *recordRepository) Update(ctx context.Context, id, ownerID string, plan *MutationPlan) error {
	cond := expression.AttributeExists(expression.Name(FieldID.Attr)).
		And(ownedBy(ownerID, plan.Kind))
	expr, err := expression.NewBuilder().
		WithUpdate(plan.UpdateBuilder()).
		WithCondition(cond).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// Delete removes the record. Deleting an id that does not exist succeeds;
// deleting another owner's record or a record of another kind does not.
func (r *recordRepository) Delete(ctx context.Context, id, ownerID string, kind model.Kind) error {
	cond := expression.AttributeNotExists(expression.Name(FieldID.Attr)).
		Or(ownedBy(ownerID, kind))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build delete condition: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{FieldID.Attr: encodeText(id)}
}

func ownedBy(ownerID string, kind model.Kind) expression.ConditionBuilder {
	return expression.Name(FieldOwner.Attr).Equal(expression.Value(ownerID)).
		And(expression.Name(FieldKind.Attr).Equal(expression.Value(string(kind))))
}

func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
