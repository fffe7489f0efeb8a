// Package entry implements the step-by-step round-entry wizard.
//
// A Flow walks SelectCourse, SetupHoles, EnterScores and Review before the
// round is handed to a Persister. A Flow is not safe for concurrent use;
// Sessions serialises access per instance.
package entry

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/internal/domain/stats"
)

// State is a step of the wizard.
type State int

// Wizard steps in order.
const (
	SelectCourse State = iota
	SetupHoles
	EnterScores
	Review
	Submitted
)

func (s State) String() string {
	switch s {
	case SelectCourse:
		return "select_course"
	case SetupHoles:
		return "setup_holes"
	case EnterScores:
		return "enter_scores"
	case Review:
		return "review"
	case Submitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultPars is the standard par layout; nine-hole rounds use the front nine.
var DefaultPars = [18]int{4, 4, 3, 5, 4, 3, 4, 5, 4, 4, 3, 5, 4, 4, 3, 4, 5, 4}

// Persister stores a composed round and returns it with its assigned id.
type Persister interface {
	SaveRound(ctx context.Context, r model.Round) (model.Round, error)
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(ctx context.Context, r model.Round) (model.Round, error)

// SaveRound calls f.
func (f PersistFunc) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	return f(ctx, r)
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the time source used for the default date and the
// creation timestamp.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// Flow is one in-progress round entry.
type Flow struct {
	userID    string
	persister Persister
	now       func() time.Time

	state     State
	course    *model.Course
	holeCount int
	playedOn  time.Time
	notes     string
	holes     []model.HoleEntry
	lastErr   error
}

// New starts a flow for userID in SelectCourse.
func New(userID string, p Persister, opts ...Option) *Flow {
	f := &Flow{
		userID:    userID,
		persister: p,
		now:       time.Now,
		state:     SelectCourse,
	}
	for _, opt := range opts {
		opt(f)
	}
	y, m, d := f.now().Date()
	f.playedOn = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return f
}

// State returns the current step.
func (f *Flow) State() State { return f.state }

// UserID returns the owner of the entry.
func (f *Flow) UserID() string { return f.userID }

// Err returns the error of the last failed submission, if any.
func (f *Flow) Err() error { return f.lastErr }

// Course returns the selected course.
func (f *Flow) Course() (model.Course, bool) {
	if f.course == nil {
		return model.Course{}, false
	}
	return *f.course, true
}

// HoleCount returns the chosen number of holes, 0 until set.
func (f *Flow) HoleCount() int { return f.holeCount }

// Holes returns a copy of the per-hole entries.
func (f *Flow) Holes() []model.HoleEntry {
	out := make([]model.HoleEntry, len(f.holes))
	copy(out, f.holes)
	return out
}

// Total is the running stroke total.
func (f *Flow) Total() int {
	total := 0
	for _, h := range f.holes {
		total += h.Strokes
	}
	return total
}

// Par is the par of the populated holes.
func (f *Flow) Par() int {
	par := 0
	for _, h := range f.holes {
		par += h.Par
	}
	return par
}

func (f *Flow) require(s State) error {
	if f.state == Submitted {
		return ErrFinished
	}
	if f.state != s {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongState, f.state, s)
	}
	return nil
}

// SelectCourse picks the course. Allowed only in SelectCourse.
func (f *Flow) SelectCourse(c model.Course) error {
	if err := f.require(SelectCourse); err != nil {
		return err
	}
	f.course = &c
	return nil
}

// SetHoleCount chooses a 9 or 18 hole round. Allowed only in SetupHoles.
func (f *Flow) SetHoleCount(n int) error {
	if err := f.require(SetupHoles); err != nil {
		return err
	}
	if n != 9 && n != 18 {
		return fmt.Errorf("%w: got %d", ErrInvalidHoleCount, n)
	}
	f.holeCount = n
	return nil
}

// SetDate sets the day the round was played. Allowed only in SetupHoles.
func (f *Flow) SetDate(t time.Time) error {
	if err := f.require(SetupHoles); err != nil {
		return err
	}
	f.playedOn = t
	return nil
}

// SetNotes sets free-form notes. Allowed only in SetupHoles.
func (f *Flow) SetNotes(notes string) error {
	if err := f.require(SetupHoles); err != nil {
		return err
	}
	f.notes = notes
	return nil
}

// Next advances one step when the current step's guard holds. Review is
// left through Submit only.
func (f *Flow) Next() error {
	switch f.state {
	case SelectCourse:
		if f.course == nil {
			return ErrNoCourse
		}
		f.state = SetupHoles
	case SetupHoles:
		if f.holeCount != 9 && f.holeCount != 18 {
			return ErrInvalidHoleCount
		}
		// Entered strokes survive a round trip through Back unless the
		// hole count changed.
		if len(f.holes) != f.holeCount {
			f.holes = placeholders(f.holeCount)
		}
		f.state = EnterScores
	case EnterScores:
		f.state = Review
	case Review:
		return fmt.Errorf("%w: review is completed by submitting", ErrWrongState)
	case Submitted:
		return ErrFinished
	}
	return nil
}

// Back returns to the immediately preceding step.
func (f *Flow) Back() error {
	switch f.state {
	case SelectCourse:
		return ErrNoPrevious
	case Submitted:
		return ErrFinished
	}
	f.state--
	return nil
}

func (f *Flow) hole(number int) (*model.HoleEntry, error) {
	if err := f.require(EnterScores); err != nil {
		return nil, err
	}
	if number < 1 || number > len(f.holes) {
		return nil, fmt.Errorf("%w: %d of %d", ErrUnknownHole, number, len(f.holes))
	}
	return &f.holes[number-1], nil
}

// Increment adds a stroke on the given hole.
func (f *Flow) Increment(number int) error {
	h, err := f.hole(number)
	if err != nil {
		return err
	}
	h.Strokes++
	return nil
}

// Decrement removes a stroke on the given hole. A hole never drops below
// one stroke; decrementing at one is a no-op.
func (f *Flow) Decrement(number int) error {
	h, err := f.hole(number)
	if err != nil {
		return err
	}
	if h.Strokes > 1 {
		h.Strokes--
	}
	return nil
}

// Round composes the round as it would be submitted.
func (f *Flow) Round() model.Round {
	r := model.Round{
		UserID:   f.userID,
		PlayedOn: f.playedOn,
		Score:    f.Total(),
		Holes:    f.Holes(),
		Notes:    f.notes,
	}
	if f.course != nil {
		r.CourseID = f.course.ID
		r.CourseName = f.course.Name
	}
	return r
}

// Submit persists the round from Review. On failure the flow stays in
// Review and the error is kept for display; nothing is retried.
func (f *Flow) Submit(ctx context.Context) (model.Round, error) {
	if err := f.require(Review); err != nil {
		return model.Round{}, err
	}
	r := f.Round()
	r.CreatedAt = f.now().UTC()
	if err := r.Validate(); err != nil {
		f.lastErr = err
		return model.Round{}, err
	}
	saved, err := f.persister.SaveRound(ctx, r)
	if err != nil {
		f.lastErr = fmt.Errorf("%w: %w", ErrPersist, err)
		return model.Round{}, f.lastErr
	}
	f.lastErr = nil
	f.state = Submitted
	return saved, nil
}

func placeholders(n int) []model.HoleEntry {
	holes := make([]model.HoleEntry, n)
	for i := range holes {
		par := DefaultPars[i]
		holes[i] = model.HoleEntry{Number: i + 1, Par: par, Strokes: par}
	}
	return holes
}

// HoleView is a hole entry with its display label.
type HoleView struct {
	model.HoleEntry
	Label string `json:"label"`
}

// View is the read shape of a flow.
type View struct {
	State     string        `json:"state"`
	UserID    string        `json:"user_id"`
	Course    *model.Course `json:"course,omitempty"`
	HoleCount int           `json:"hole_count"`
	PlayedOn  string        `json:"date_played"`
	Notes     string        `json:"notes,omitempty"`
	Holes     []HoleView    `json:"holes,omitempty"`
	Total     int           `json:"total"`
	ToPar     string        `json:"to_par,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// View snapshots the flow for display.
func (f *Flow) View() View {
	v := View{
		State:     f.state.String(),
		UserID:    f.userID,
		HoleCount: f.holeCount,
		PlayedOn:  f.playedOn.Format(model.DateLayout),
		Notes:     f.notes,
		Total:     f.Total(),
	}
	if f.course != nil {
		c := *f.course
		v.Course = &c
	}
	if len(f.holes) > 0 {
		v.Holes = make([]HoleView, len(f.holes))
		for i, h := range f.holes {
			v.Holes[i] = HoleView{HoleEntry: h, Label: h.Label()}
		}
		v.ToPar = stats.ScoreToPar(v.Total, f.Par())
	}
	if f.lastErr != nil {
		v.Error = f.lastErr.Error()
	}
	return v
}
