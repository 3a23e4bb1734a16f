package reminder

import (
	"context"
	"sync"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Mode is what an open form will do on submit: CreateMode or EditMode.
type Mode interface {
	isMode()
}

// CreateMode submits a new reminder.
type CreateMode struct{}

// EditMode submits changes to reminder ID.
type EditMode struct {
	ID int64
}

func (CreateMode) isMode() {}
func (EditMode) isMode()   {}

// Phase is the form lifecycle: Closed -> Open -> Submitting -> Closed | Open.
type Phase int

const (
	Closed Phase = iota
	Open
	Submitting
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

// FormState is a point-in-time copy of a Form.
type FormState struct {
	Phase Phase
	Mode  Mode
	Input Input
	Err   error
}

// Form is the create/edit dialog for one user. A submission in flight
// blocks further submissions until it resolves.
type Form struct {
	mgr *Manager

	mu    sync.Mutex
	phase Phase
	mode  Mode
	input Input
	err   error
}

// NewForm creates a closed form backed by mgr.
func NewForm(mgr *Manager) *Form {
	return &Form{mgr: mgr}
}

// OpenCreate opens the form for a new reminder, preselecting channelID
// (0 for none).
func (f *Form) OpenCreate(channelID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Submitting {
		return apperr.Validation(apperr.CodeSubmissionInFlight, "a submission is in progress")
	}
	f.phase, f.mode, f.err = Open, CreateMode{}, nil
	f.input = Input{ChannelID: channelID, NotifyBefore: models.MinNotifyBefore}
	return nil
}

// OpenEdit opens the form prefilled with reminder id.
func (f *Form) OpenEdit(id int64) error {
	r, err := f.mgr.Get(id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Submitting {
		return apperr.Validation(apperr.CodeSubmissionInFlight, "a submission is in progress")
	}
	f.phase, f.mode, f.err = Open, EditMode{ID: id}, nil
	f.input = InputFrom(r)
	return nil
}

// Close discards the form. A submission in flight still completes.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Submitting {
		return
	}
	f.phase, f.mode, f.input, f.err = Closed, nil, Input{}, nil
}

// State returns the current form state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState{Phase: f.phase, Mode: f.mode, Input: f.input, Err: f.err}
}

// Submit sends in according to the open mode. On success the form closes;
// on failure it stays open carrying the error.
func (f *Form) Submit(ctx context.Context, in Input) (models.Reminder, error) {
	f.mu.Lock()
	switch f.phase {
	case Submitting:
		f.mu.Unlock()
		return models.Reminder{}, apperr.Validation(apperr.CodeSubmissionInFlight, "a submission is in progress")
	case Closed:
		f.mu.Unlock()
		return models.Reminder{}, apperr.Validation(apperr.CodeFormClosed, "form is not open")
	}
	f.phase, f.input, f.err = Submitting, in, nil
	mode := f.mode
	f.mu.Unlock()

	var (
		r   models.Reminder
		err error
	)
	switch m := mode.(type) {
	case EditMode:
		r, _, err = f.mgr.Update(ctx, m.ID, in)
	default:
		r, _, err = f.mgr.Create(ctx, in)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.phase, f.err = Open, err
		return models.Reminder{}, err
	}
	f.phase, f.mode, f.input, f.err = Closed, nil, Input{}, nil
	return r, nil
}
