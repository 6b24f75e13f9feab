package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/copple/planner/internal/config"
)

// Init creates the DynamoDB client for the shared record table.
// DYNAMODB_ENDPOINT points the client at DynamoDB Local or LocalStack.
func Init(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *dynamodb.Client
	if cfg.DynamoEndpoint != "" {
		client = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		})
	} else {
		client = dynamodb.NewFromConfig(awsCfg)
	}

	slog.Info("dynamodb client ready", "table", cfg.DynamoTable, "region", cfg.AWSRegion, "endpoint", cfg.DynamoEndpoint)

	if cfg.DynamoCreateTable {
		err = EnsureTable(ctx, client, cfg.DynamoTable)
		if err != nil {
			return nil, err
		}
	}

	return client, nil
}

// EnsureTable creates the record table (hash key EventId) when it is missing.
// Intended for local endpoints; production tables are provisioned outside the app.
func EnsureTable(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %q: %w", table, err)
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("EventId"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("EventId"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceInUseException" {
			return nil // Created concurrently
		}
		return fmt.Errorf("table %q does not exist and could not be created: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, 2*time.Minute)
	if err != nil {
		return fmt.Errorf("table %q not active: %w", table, err)
	}

	slog.Info("created dynamodb table", "table", table)
	return nil
}
