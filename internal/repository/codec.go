package repository

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/copple/planner/internal/model"
)

var (
	ErrDecode = errors.New("corrupt record item")
)

// Field maps a record field to its attribute in the shared table.
type Field struct {
	Name    string // JSON and patch name
	Attr    string // DynamoDB attribute name
	Numeric bool   // stored as N instead of S
}

var (
	FieldID            = Field{Name: "event_id", Attr: "EventId"}
	FieldOwner         = Field{Name: "user_id", Attr: "UserId"}
	FieldKind          = Field{Name: "eventType", Attr: "EventType"}
	FieldTitle         = Field{Name: "title", Attr: "Title"}
	FieldStartDatetime = Field{Name: "startDatetime", Attr: "StartDatetime"}
	FieldEndDatetime   = Field{Name: "endDatetime", Attr: "EndDatetime"}
	FieldOffset        = Field{Name: "offset", Attr: "Offset", Numeric: true}
	FieldGoalRef       = Field{Name: "goal", Attr: "Goal"}
	FieldLocation      = Field{Name: "location", Attr: "Location"}
	FieldContent       = Field{Name: "content", Attr: "Content"}
	FieldPhotoURL      = Field{Name: "photoUrl", Attr: "PhotoURL"}
)

// updatableFields is the canonical patch checklist per kind. The order
// here is the order of assignments in a MutationPlan.
var updatableFields = map[model.Kind][]Field{
	model.KindGoal: {
		FieldTitle, FieldStartDatetime, FieldEndDatetime, FieldOffset, FieldLocation, FieldContent,
	},
	model.KindEvent: {
		FieldTitle, FieldStartDatetime, FieldEndDatetime, FieldOffset, FieldGoalRef, FieldLocation, FieldContent,
	},
	model.KindTodo: {
		FieldTitle, FieldGoalRef, FieldLocation, FieldContent,
	},
}

// UpdatableFields returns the patch checklist for kind.
func UpdatableFields(kind model.Kind) []Field {
	return append([]Field(nil), updatableFields[kind]...)
}

// EncodeItem converts a record into its table item. Fields that do not
// apply to the record's kind and nil optional fields are omitted.
func EncodeItem(r model.Record) (map[string]types.AttributeValue, error) {
	b := r.Common()
	item := map[string]types.AttributeValue{
		FieldID.Attr:    encodeText(b.ID),
		FieldOwner.Attr: encodeText(b.OwnerID),
		FieldKind.Attr:  encodeText(string(r.Kind())),
		FieldTitle.Attr: encodeText(b.Title),
	}
	putOptional(item, FieldLocation, b.Location)
	putOptional(item, FieldContent, b.Content)

	switch rec := r.(type) {
	case *model.Goal:
		if err := putSchedule(item, rec.Schedule); err != nil {
			return nil, err
		}
		putOptional(item, FieldPhotoURL, rec.PhotoURL)
	case *model.Event:
		if err := putSchedule(item, rec.Schedule); err != nil {
			return nil, err
		}
		putOptional(item, FieldGoalRef, rec.GoalRef)
	case *model.Todo:
		putOptional(item, FieldGoalRef, rec.GoalRef)
	default:
		return nil, fmt.Errorf("unsupported record type %T", r)
	}

	return item, nil
}

// EncodeValue converts a single field value (string or float64) into its
// attribute form.
func EncodeValue(f Field, v any) (types.AttributeValue, error) {
	if f.Numeric {
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("field %s: expected number, got %T", f.Name, v)
		}
		return encodeNumber(n)
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %s: expected string, got %T", f.Name, v)
	}
	return encodeText(s), nil
}

// DecodeItem rebuilds a record from a table item. A missing required field
// for the item's kind is an ErrDecode, never a record of reduced shape.
func DecodeItem(item map[string]types.AttributeValue) (model.Record, error) {
	d := &decoder{item: item}

	kindName := d.text(FieldKind)
	if d.err != nil {
		return nil, d.err
	}
	kind, err := model.ParseKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	base := model.Base{
		ID:       d.text(FieldID),
		OwnerID:  d.text(FieldOwner),
		Type:     kind,
		Title:    d.text(FieldTitle),
		Location: d.optionalText(FieldLocation),
		Content:  d.optionalText(FieldContent),
	}

	var rec model.Record
	switch kind {
	case model.KindGoal:
		rec = &model.Goal{
			Base:     base,
			Schedule: d.schedule(),
			PhotoURL: d.optionalText(FieldPhotoURL),
		}
	case model.KindEvent:
		rec = &model.Event{
			Base:     base,
			Schedule: d.schedule(),
			GoalRef:  d.optionalText(FieldGoalRef),
		}
	case model.KindTodo:
		rec = &model.Todo{
			Base:    base,
			GoalRef: d.optionalText(FieldGoalRef),
		}
	default:
		return nil, fmt.Errorf("%w: unhandled kind %q", ErrDecode, kind)
	}

	if d.err != nil {
		return nil, d.err
	}
	return rec, nil
}

func encodeText(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func encodeNumber(n float64) (types.AttributeValue, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("number %v cannot be stored", n)
	}
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(n, 'f', -1, 64)}, nil
}

func putOptional(item map[string]types.AttributeValue, f Field, v *string) {
	if v != nil {
		item[f.Attr] = encodeText(*v)
	}
}

func putSchedule(item map[string]types.AttributeValue, s model.Schedule) error {
	offset, err := encodeNumber(s.Offset)
	if err != nil {
		return fmt.Errorf("field %s: %w", FieldOffset.Name, err)
	}
	item[FieldStartDatetime.Attr] = encodeText(s.StartDatetime)
	item[FieldEndDatetime.Attr] = encodeText(s.EndDatetime)
	item[FieldOffset.Attr] = offset
	return nil
}

// decoder keeps the first error so DecodeItem reads like a field list.
type decoder struct {
	item map[string]types.AttributeValue
	err  error
}

func (d *decoder) fail(f Field, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: attribute %s: %s", ErrDecode, f.Attr, fmt.Sprintf(format, args...))
	}
}

// lookup returns the attribute, treating NULL the same as missing.
func (d *decoder) lookup(f Field) (types.AttributeValue, bool) {
	av, ok := d.item[f.Attr]
	if !ok || av == nil {
		return nil, false
	}
	if _, null := av.(*types.AttributeValueMemberNULL); null {
		return nil, false
	}
	return av, true
}

func (d *decoder) text(f Field) string {
	av, ok := d.lookup(f)
	if !ok {
		d.fail(f, "missing required field")
		return ""
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		d.fail(f, "expected S, got %T", av)
		return ""
	}
	return s.Value
}

func (d *decoder) optionalText(f Field) *string {
	av, ok := d.lookup(f)
	if !ok {
		return nil
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		d.fail(f, "expected S, got %T", av)
		return nil
	}
	v := s.Value
	return &v
}

func (d *decoder) number(f Field) float64 {
	av, ok := d.lookup(f)
	if !ok {
		d.fail(f, "missing required field")
		return 0
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		d.fail(f, "expected N, got %T", av)
		return 0
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		d.fail(f, "invalid number %q", n.Value)
		return 0
	}
	return v
}

func (d *decoder) schedule() model.Schedule {
	return model.Schedule{
		StartDatetime: d.text(FieldStartDatetime),
		EndDatetime:   d.text(FieldEndDatetime),
		Offset:        d.number(FieldOffset),
	}
}
