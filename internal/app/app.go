package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/copple/planner/internal/config"
	"github.com/copple/planner/internal/db"
	"github.com/copple/planner/internal/middleware"
	"github.com/copple/planner/internal/repository"
	"github.com/copple/planner/internal/service"
	"github.com/copple/planner/internal/storage"
)

type App struct {
	Cfg           *config.Config
	TokenVerifier *service.TokenVerifier
	RecordService *service.RecordService
	UploadLimiter *middleware.RateLimiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Record store
	recordRepository, err := newRecordRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Wire(cfg, recordRepository, fileStorage), nil
}

// Wire builds the services from already constructed collaborators.
func Wire(cfg *config.Config, recordRepository repository.RecordRepository, uploader storage.Uploader) *App {
	recordService := service.NewRecordService(
		recordRepository,
		uploader,
		cfg.S3KeyPrefix,
		cfg.StoreTimeout,
		cfg.UploadTimeout,
	)
	tokenVerifier := service.NewTokenVerifier(cfg.JWTSecret)
	uploadLimiter := middleware.NewRateLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow)

	return &App{
		Cfg:           cfg,
		TokenVerifier: tokenVerifier,
		RecordService: recordService,
		UploadLimiter: uploadLimiter,
	}
}

// Close releases background resources held by the app.
func (a *App) Close() {
	a.UploadLimiter.Stop()
}

func newRecordRepository(ctx context.Context, cfg *config.Config) (repository.RecordRepository, error) {
	switch cfg.StoreDriver {
	case "memory":
		slog.Warn("using in-memory record store, data is lost on restart")
		return repository.NewMemoryRecordRepository(), nil
	case "dynamodb", "":
		client, err := db.Init(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewRecordRepository(client, cfg.DynamoTable), nil
	}
	return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
}
