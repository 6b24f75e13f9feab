package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/copple/planner/internal/model"
)

const (
	maxTitleLength = 200
	maxTextLength  = 4000
)

// ValidateRecord checks the fields required to create a record of its kind
func ValidateRecord(rec model.Record) error {
	b := rec.Common()

	err := ValidateTitle(b.Title)
	if err != nil {
		return err
	}

	for _, opt := range []struct {
		name  string
		value *string
	}{
		{"location", b.Location},
		{"content", b.Content},
	} {
		if opt.value != nil && len(*opt.value) > maxTextLength {
			return fmt.Errorf("%s is too long (max %d characters)", opt.name, maxTextLength)
		}
	}

	switch r := rec.(type) {
	case *model.Goal:
		return validateSchedule(r.Schedule)
	case *model.Event:
		return validateSchedule(r.Schedule)
	case *model.Todo:
		return nil
	}
	return fmt.Errorf("unsupported record type %T", rec)
}

// ValidatePatch checks the values of the fields a patch sets
func ValidatePatch(p model.Patch) error {
	if p.Title != nil && *p.Title != "" {
		err := ValidateTitle(*p.Title)
		if err != nil {
			return err
		}
	}
	if p.Offset != nil {
		return validateOffset(*p.Offset)
	}
	return nil
}

// ValidateTitle validates a record title
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return errors.New("title is required")
	}

	if len(trimmed) > maxTitleLength {
		return fmt.Errorf("title is too long (max %d characters)", maxTitleLength)
	}

	return nil
}

func validateSchedule(s model.Schedule) error {
	if s.StartDatetime == "" {
		return errors.New("startDatetime is required")
	}
	if s.EndDatetime == "" {
		return errors.New("endDatetime is required")
	}
	return validateOffset(s.Offset)
}

func validateOffset(offset float64) error {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return errors.New("offset must be a finite number")
	}
	return nil
}
