package repository

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/copple/planner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecordRepository()

	goal := &model.Goal{
		Base:     model.Base{ID: "g1", OwnerID: "u1", Type: model.KindGoal, Title: "Trip", Location: model.String("Seoul")},
		Schedule: model.Schedule{StartDatetime: "s", EndDatetime: "e", Offset: 0},
		PhotoURL: model.String("https://example.com/a.png"),
	}
	require.NoError(t, repo.Create(ctx, goal))
	assert.ErrorIs(t, repo.Create(ctx, goal), ErrRecordExists)

	require.NoError(t, repo.Create(ctx, &model.Todo{
		Base: model.Base{ID: "t1", OwnerID: "u1", Type: model.KindTodo, Title: "Pack"},
	}))
	require.NoError(t, repo.Create(ctx, &model.Goal{
		Base:     model.Base{ID: "g2", OwnerID: "u2", Type: model.KindGoal, Title: "Other"},
		Schedule: model.Schedule{StartDatetime: "s", EndDatetime: "e"},
	}))

	t.Run("records are scoped by owner and kind", func(t *testing.T) {
		goals, err := repo.Records(ctx, "u1", model.KindGoal)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.Equal(t, goal, goals[0])

		events, err := repo.Records(ctx, "u1", model.KindEvent)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("update touches only planned fields", func(t *testing.T) {
		plan, err := BuildUpdate(model.KindGoal, model.Patch{Title: model.String("Trip 2"), Offset: model.Float64(9)})
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, "g1", "u1", plan))

		rec, err := repo.ByID(ctx, "g1", "u1", model.KindGoal)
		require.NoError(t, err)
		want := *goal
		want.Title = "Trip 2"
		want.Offset = 9
		assert.Equal(t, &want, rec)
	})

	t.Run("update requires owner, kind and existence", func(t *testing.T) {
		plan, err := BuildUpdate(model.KindGoal, model.Patch{Title: model.String("x")})
		require.NoError(t, err)

		assert.ErrorIs(t, repo.Update(ctx, "g1", "u2", plan), ErrRecordNotFound)
		assert.ErrorIs(t, repo.Update(ctx, "t1", "u1", plan), ErrRecordNotFound)
		assert.ErrorIs(t, repo.Update(ctx, "missing", "u1", plan), ErrRecordNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, "g2", "u1", model.KindGoal), ErrRecordNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "t1", "u1", model.KindGoal), ErrRecordNotFound)

		require.NoError(t, repo.Delete(ctx, "t1", "u1", model.KindTodo))
		require.NoError(t, repo.Delete(ctx, "t1", "u1", model.KindTodo), "deleting twice succeeds")

		_, err := repo.ByID(ctx, "t1", "u1", model.KindTodo)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestMemoryRecordRepositoryCorruptItems(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecordRepository().(*memoryRecordRepository)

	require.NoError(t, repo.Create(ctx, &model.Todo{
		Base: model.Base{ID: "t1", OwnerID: "u1", Type: model.KindTodo, Title: "Pack"},
	}))
	corrupt := todoItem("t2", "u1")
	delete(corrupt, "Title")
	repo.items["t2"] = corrupt

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("records skips and logs corrupt items", func(t *testing.T) {
		todos, err := repo.Records(ctx, "u1", model.KindTodo)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "t1", todos[0].Common().ID)
		assert.Contains(t, logs.String(), "skipping corrupt item")
	})

	t.Run("corrupt item of another owner reads as missing", func(t *testing.T) {
		_, err := repo.ByID(ctx, "t2", "u2", model.KindTodo)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		_, err = repo.ByID(ctx, "t2", "u1", model.KindTodo)
		assert.ErrorIs(t, err, ErrDecode)
	})
}
