package model

import "fmt"

// Kind discriminates the record variants stored in the shared table.
type Kind string

const (
	KindGoal  Kind = "Goal"
	KindEvent Kind = "Event"
	KindTodo  Kind = "Todo"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindGoal, KindEvent, KindTodo}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Slug is the lowercase form used in routes and cookie names.
func (k Kind) Slug() string {
	switch k {
	case KindGoal:
		return "goal"
	case KindEvent:
		return "event"
	case KindTodo:
		return "todo"
	}
	return ""
}

// Record is implemented only by *Goal, *Event and *Todo.
type Record interface {
	Kind() Kind
	Common() *Base
	sealed()
}

// Base holds the fields every kind shares.
// Optional text fields are nil when never set.
type Base struct {
	ID       string  `json:"event_id"`
	OwnerID  string  `json:"user_id"`
	Type     Kind    `json:"eventType"`
	Title    string  `json:"title"`
	Location *string `json:"location"`
	Content  *string `json:"content"`
}

// Schedule is shared by goals and events.
type Schedule struct {
	StartDatetime string  `json:"startDatetime"`
	EndDatetime   string  `json:"endDatetime"`
	Offset        float64 `json:"offset"`
}

type Goal struct {
	Base
	Schedule
	PhotoURL *string `json:"photoUrl"`
}

type Event struct {
	Base
	Schedule
	GoalRef *string `json:"goal"`
}

type Todo struct {
	Base
	GoalRef *string `json:"goal"`
}

func (*Goal) Kind() Kind  { return KindGoal }
func (*Event) Kind() Kind { return KindEvent }
func (*Todo) Kind() Kind  { return KindTodo }

func (g *Goal) Common() *Base  { return &g.Base }
func (e *Event) Common() *Base { return &e.Base }
func (t *Todo) Common() *Base  { return &t.Base }

func (*Goal) sealed()  {}
func (*Event) sealed() {}
func (*Todo) sealed()  {}

// New returns an empty record of the given kind.
func New(k Kind) (Record, error) {
	switch k {
	case KindGoal:
		return &Goal{Base: Base{Type: KindGoal}}, nil
	case KindEvent:
		return &Event{Base: Base{Type: KindEvent}}, nil
	case KindTodo:
		return &Todo{Base: Base{Type: KindTodo}}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", k)
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
