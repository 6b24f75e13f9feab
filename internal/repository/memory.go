package repository

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/copple/planner/internal/model"
)

// memoryRecordRepository keeps encoded items in process memory and applies
// the same conditions as the DynamoDB repository. Used for local development
// (STORE_DRIVER=memory) and tests.
type memoryRecordRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{items: make(map[string]map[string]types.AttributeValue)}
}

func (r *memoryRecordRepository) Create(ctx context.Context, record model.Record) error {
	item, err := EncodeItem(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := record.Common().ID
	if _, ok := r.items[id]; ok {
		return ErrRecordExists
	}
	r.items[id] = item
	return nil
}

func (r *memoryRecordRepository) ByID(ctx context.Context, id, ownerID string, kind model.Kind) (model.Record, error) {
	r.mu.RLock()
	item, ok := r.items[id]
	r.mu.RUnlock()
	if !ok || !matches(item, ownerID, kind) {
		return nil, ErrRecordNotFound
	}
	return DecodeItem(item)
}

func (r *memoryRecordRepository) Records(ctx context.Context, ownerID string, kind model.Kind) ([]model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []model.Record{}
	for _, item := range r.items {
		if !matches(item, ownerID, kind) {
			continue
		}
		rec, err := DecodeItem(item)
		if err != nil {
			slog.Warn("skipping corrupt item", "error", err, "owner_id", ownerID, "kind", kind)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *memoryRecordRepository) Update(ctx context.Context, id, ownerID string, plan *MutationPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !matches(item, ownerID, plan.Kind) {
		return ErrRecordNotFound
	}

	updated := maps.Clone(item)
	for _, a := range plan.Assignments {
		av, err := EncodeValue(a.Field, a.Value)
		if err != nil {
			return err
		}
		updated[a.Field.Attr] = av
	}
	r.items[id] = updated
	return nil
}

func (r *memoryRecordRepository) Delete(ctx context.Context, id, ownerID string, kind model.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil
	}
	if !matches(item, ownerID, kind) {
		return ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func matches(item map[string]types.AttributeValue, ownerID string, kind model.Kind) bool {
	return textAttr(item, FieldOwner) == ownerID && textAttr(item, FieldKind) == string(kind)
}

func textAttr(item map[string]types.AttributeValue, f Field) string {
	s, ok := item[f.Attr].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}
