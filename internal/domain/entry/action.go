package entry

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/golfr/internal/domain/model"
)

// ActionKind names a wizard input.
type ActionKind string

// Wizard inputs accepted by Apply.
const (
	ActionSelectCourse ActionKind = "select_course"
	ActionSetHoles     ActionKind = "set_holes"
	ActionSetDate      ActionKind = "set_date"
	ActionSetNotes     ActionKind = "set_notes"
	ActionNext         ActionKind = "next"
	ActionBack         ActionKind = "back"
	ActionIncrement    ActionKind = "increment"
	ActionDecrement    ActionKind = "decrement"
	ActionSubmit       ActionKind = "submit"
)

// Action is one wizard input. Only the fields relevant to Kind are read.
type Action struct {
	Kind     ActionKind
	Course   model.Course
	Holes    int
	PlayedOn time.Time
	Notes    string
	Hole     int
}

// Apply dispatches a to the flow. The returned round is set only for a
// successful submit.
func (f *Flow) Apply(ctx context.Context, a Action) (model.Round, error) {
	var err error
	switch a.Kind {
	case ActionSelectCourse:
		err = f.SelectCourse(a.Course)
	case ActionSetHoles:
		err = f.SetHoleCount(a.Holes)
	case ActionSetDate:
		err = f.SetDate(a.PlayedOn)
	case ActionSetNotes:
		err = f.SetNotes(a.Notes)
	case ActionNext:
		err = f.Next()
	case ActionBack:
		err = f.Back()
	case ActionIncrement:
		err = f.Increment(a.Hole)
	case ActionDecrement:
		err = f.Decrement(a.Hole)
	case ActionSubmit:
		return f.Submit(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	return model.Round{}, err
}
