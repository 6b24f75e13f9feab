package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/copple/planner/internal/model"
	"github.com/copple/planner/internal/repository"
	"github.com/copple/planner/internal/storage"
	"github.com/copple/planner/internal/validation"
	"github.com/google/uuid"
)

// Asset is the binary payload attached to a goal on creation.
type Asset struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

type RecordService struct {
	repo          repository.RecordRepository
	uploader      storage.Uploader
	keyPrefix     string
	storeTimeout  time.Duration
	uploadTimeout time.Duration
}

func NewRecordService(
	repo repository.RecordRepository,
	uploader storage.Uploader,
	keyPrefix string,
	storeTimeout time.Duration,
	uploadTimeout time.Duration,
) *RecordService {
	return &RecordService{
		repo:          repo,
		uploader:      uploader,
		keyPrefix:     keyPrefix,
		storeTimeout:  storeTimeout,
		uploadTimeout: uploadTimeout,
	}
}

// Create assigns id, owner and kind, uploads the goal photo when the record
// is a goal, and persists the record. Nothing is written if the upload fails.
func (s *RecordService) Create(ctx context.Context, ownerID string, rec model.Record, asset *Asset) (model.Record, error) {
	err := validation.ValidateRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	base := rec.Common()
	base.ID = uuid.New().String()
	base.OwnerID = ownerID
	base.Type = rec.Kind()

	var uploadedKey string
	if goal, ok := rec.(*model.Goal); ok {
		if asset == nil {
			return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
		}

		uploadedKey = s.objectKey(asset)
		url, err := withTimeout(ctx, s.uploadTimeout, func(ctx context.Context) (string, error) {
			return s.uploader.Upload(ctx, uploadedKey, asset.Body, asset.ContentType)
		})
		if err != nil {
			return nil, remoteError(ErrUpload, err)
		}
		goal.PhotoURL = &url
	}

	_, err = withTimeout(ctx, s.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, rec)
	})
	if err != nil {
		if uploadedKey != "" {
			s.discardUpload(ctx, uploadedKey)
		}
		return nil, storeError(err)
	}

	return rec, nil
}

// Records returns the owner's records of kind, in store order.
func (s *RecordService) Records(ctx context.Context, ownerID string, kind model.Kind) ([]model.Record, error) {
	records, err := withTimeout(ctx, s.storeTimeout, func(ctx context.Context) ([]model.Record, error) {
		return s.repo.Records(ctx, ownerID, kind)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return records, nil
}

// ByID returns the record only when it belongs to ownerID and has kind.
func (s *RecordService) ByID(ctx context.Context, ownerID string, kind model.Kind, id string) (model.Record, error) {
	rec, err := withTimeout(ctx, s.storeTimeout, func(ctx context.Context) (model.Record, error) {
		return s.repo.ByID(ctx, id, ownerID, kind)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

// Update applies the includable fields of patch. A patch with none fails
// with ErrNoFields before the store is touched.
func (s *RecordService) Update(ctx context.Context, ownerID string, kind model.Kind, id string, patch model.Patch) error {
	err := validation.ValidatePatch(patch)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	plan, err := repository.BuildUpdate(kind, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNoFields) {
			return ErrNoFields
		}
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	_, err = withTimeout(ctx, s.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Update(ctx, id, ownerID, plan)
	})
	return storeError(err)
}

// Delete removes the record. A missing id is not an error.
func (s *RecordService) Delete(ctx context.Context, ownerID string, kind model.Kind, id string) error {
	_, err := withTimeout(ctx, s.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id, ownerID, kind)
	})
	return storeError(err)
}

func (s *RecordService) objectKey(asset *Asset) string {
	ext := strings.ToLower(filepath.Ext(asset.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join(s.keyPrefix, uuid.New().String()+ext)
}

// discardUpload removes an object whose record could not be written.
func (s *RecordService) discardUpload(ctx context.Context, key string) {
	_, err := withTimeout(context.WithoutCancel(ctx), s.uploadTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.uploader.Delete(ctx, key)
	})
	if err != nil {
		slog.Error("failed to delete uploaded asset during rollback", "error", err, "key", key)
	}
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDecode):
		return err
	}
	return remoteError(ErrStore, err)
}

func remoteError(kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", kind, ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
