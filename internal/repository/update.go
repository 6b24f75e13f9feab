package repository

import (
	"errors"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/copple/planner/internal/model"
)

var (
	ErrNoFields = errors.New("no fields to update")
)

// Assignment is one field the plan will SET. Value is a string or float64.
type Assignment struct {
	Field Field
	Value any
}

// MutationPlan is the resolved, ordered set of fields a patch changes.
type MutationPlan struct {
	Kind        model.Kind
	Assignments []Assignment
}

// BuildUpdate turns a sparse patch into a plan against kind's checklist.
// Nil fields and empty strings are skipped; an explicit zero offset is kept.
// Fields that do not belong to kind are ignored.
func BuildUpdate(kind model.Kind, p model.Patch) (*MutationPlan, error) {
	fields, ok := updatableFields[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	plan := &MutationPlan{Kind: kind}
	for _, f := range fields {
		v, ok, err := patchValue(p, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		plan.Assignments = append(plan.Assignments, Assignment{Field: f, Value: v})
	}

	if len(plan.Assignments) == 0 {
		return nil, ErrNoFields
	}
	return plan, nil
}

// Fields returns the patch names of the assignments, in plan order.
func (p *MutationPlan) Fields() []string {
	names := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		names = append(names, a.Field.Name)
	}
	return names
}

// UpdateBuilder renders the plan as a SET expression.
func (p *MutationPlan) UpdateBuilder() expression.UpdateBuilder {
	var ub expression.UpdateBuilder
	for _, a := range p.Assignments {
		ub = ub.Set(expression.Name(a.Field.Attr), expression.Value(a.Value))
	}
	return ub
}

func patchValue(p model.Patch, f Field) (any, bool, error) {
	switch f {
	case FieldTitle:
		return text(p.Title)
	case FieldStartDatetime:
		return text(p.StartDatetime)
	case FieldEndDatetime:
		return text(p.EndDatetime)
	case FieldGoalRef:
		return text(p.GoalRef)
	case FieldLocation:
		return text(p.Location)
	case FieldContent:
		return text(p.Content)
	case FieldOffset:
		if p.Offset == nil {
			return nil, false, nil
		}
		if math.IsNaN(*p.Offset) || math.IsInf(*p.Offset, 0) {
			return nil, false, fmt.Errorf("field %s: number %v cannot be stored", f.Name, *p.Offset)
		}
		return *p.Offset, true, nil
	}
	return nil, false, fmt.Errorf("field %s is not updatable", f.Name)
}

// text treats an empty string like an absent field.
func text(s *string) (any, bool, error) {
	if s == nil || *s == "" {
		return nil, false, nil
	}
	return *s, true, nil
}
