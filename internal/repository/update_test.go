package repository

import (
	"math"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/copple/planner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateOrder(t *testing.T) {
	// Patch fields are set in reverse of the checklist on purpose.
	patch := model.Patch{
		Content:       model.String("notes"),
		Location:      model.String("Busan"),
		GoalRef:       model.String("g1"),
		Offset:        model.Float64(540),
		EndDatetime:   model.String("e"),
		StartDatetime: model.String("s"),
		Title:         model.String("Flight"),
	}

	tests := []struct {
		kind model.Kind
		want []string
	}{
		{model.KindGoal, []string{"title", "startDatetime", "endDatetime", "offset", "location", "content"}},
		{model.KindEvent, []string{"title", "startDatetime", "endDatetime", "offset", "goal", "location", "content"}},
		{model.KindTodo, []string{"title", "goal", "location", "content"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			plan, err := BuildUpdate(tt.kind, patch)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, plan.Kind)
			assert.Equal(t, tt.want, plan.Fields())
		})
	}
}

func TestBuildUpdateEmptyStringIsAbsent(t *testing.T) {
	// An empty string does not clear a field; it is skipped like a missing one.
	_, err := BuildUpdate(model.KindTodo, model.Patch{Title: model.String("")})
	assert.ErrorIs(t, err, ErrNoFields)

	plan, err := BuildUpdate(model.KindTodo, model.Patch{Title: model.String(""), Content: model.String("x")})
	require.NoError(t, err)
	assert.Equal(t, []string{"content"}, plan.Fields())
}

func TestBuildUpdateZeroOffsetIsIncluded(t *testing.T) {
	plan, err := BuildUpdate(model.KindGoal, model.Patch{Offset: model.Float64(0)})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, FieldOffset, plan.Assignments[0].Field)
	assert.Equal(t, 0.0, plan.Assignments[0].Value)
}

func TestBuildUpdateNoFields(t *testing.T) {
	_, err := BuildUpdate(model.KindEvent, model.Patch{})
	assert.ErrorIs(t, err, ErrNoFields)

	// Todo has no schedule, so schedule fields alone leave nothing to update.
	_, err = BuildUpdate(model.KindTodo, model.Patch{Offset: model.Float64(1), StartDatetime: model.String("s")})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestBuildUpdateRejects(t *testing.T) {
	_, err := BuildUpdate(model.KindGoal, model.Patch{Offset: model.Float64(math.NaN())})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFields)

	_, err = BuildUpdate("Note", model.Patch{Title: model.String("x")})
	assert.Error(t, err)
}

func TestMutationPlanUpdateBuilder(t *testing.T) {
	plan, err := BuildUpdate(model.KindEvent, model.Patch{Title: model.String("Flight"), Offset: model.Float64(0)})
	require.NoError(t, err)

	expr, err := expression.NewBuilder().WithUpdate(plan.UpdateBuilder()).Build()
	require.NoError(t, err)

	assert.Contains(t, *expr.Update(), "SET")
	assert.ElementsMatch(t, []string{"Title", "Offset"}, nameValues(expr.Names()))
	assert.Len(t, expr.Values(), 2)
}

func nameValues(names map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, v := range names {
		out = append(out, v)
	}
	return out
}
