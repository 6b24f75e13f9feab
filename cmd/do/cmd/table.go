package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/copple/planner/internal/config"
	"github.com/copple/planner/internal/db"
	"github.com/spf13/cobra"
)

func TableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Create the DynamoDB record table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd.Context())
		},
	}
}

func runTable(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	cfg := config.Load()
	cfg.DynamoCreateTable = true

	_, err := db.Init(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Table %s is ready\n", cfg.DynamoTable)
	return nil
}
