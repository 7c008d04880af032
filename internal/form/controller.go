// Package form drives one create or edit form through its submit cycle:
// validate, call the backend, and turn the outcome into the next form state.
package form

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Ashfaaq98/case-board/internal/api"
	"github.com/Ashfaaq98/case-board/internal/cases"
	"go.uber.org/zap"
)

// Remote is the part of the backend client a form needs.
type Remote interface {
	CreateCase(ctx context.Context, fields cases.Fields) api.Result
	UpdateCase(ctx context.Context, id int64, fields cases.Fields) api.Result
}

// Mode says whether a controller creates a new case or edits an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// State is what a form renders: per-field errors, an optional top-level
// message and the backend's structured error, if any.
type State struct {
	Errors        cases.FieldErrors
	Message       string
	ErrorResponse *api.ErrorResponse
}

// Outcome is the result of one submit. It is one of ValidationFailed,
// RemoteRejected or Succeeded.
type Outcome interface {
	state() State
}

// ValidationFailed means the input was rejected locally; no request was sent.
type ValidationFailed struct {
	Errors cases.FieldErrors
}

func (o ValidationFailed) state() State { return State{Errors: o.Errors} }

// RemoteRejected means the backend refused the write or could not be reached.
// ErrorResponse is nil when there was no structured error to show.
type RemoteRejected struct {
	Message       string
	ErrorResponse *api.ErrorResponse
}

func (o RemoteRejected) state() State {
	return State{Errors: cases.FieldErrors{}, Message: o.Message, ErrorResponse: o.ErrorResponse}
}

// Succeeded means the write was accepted.
type Succeeded struct{}

func (Succeeded) state() State { return State{Errors: cases.FieldErrors{}} }

// Submission reports one submit. A Stale submission was overtaken by a newer
// submit on the same controller and did not change its state.
type Submission struct {
	Token   uint64
	Outcome Outcome
	Stale   bool
}

// Navigate reports whether the caller should leave the form for the list view.
func (s Submission) Navigate() bool {
	_, ok := s.Outcome.(Succeeded)
	return ok && !s.Stale
}

// Controller owns the state of one mounted form.
type Controller struct {
	remote  Remote
	mode    Mode
	editing cases.Case
	logger  *zap.Logger

	seq atomic.Uint64

	mu    sync.Mutex
	state State
}

// NewCreate returns a controller for a new-case form.
func NewCreate(remote Remote, logger *zap.Logger) *Controller {
	return newController(remote, ModeCreate, cases.Case{}, logger)
}

// NewEdit returns a controller for editing existing. The case id and case
// number are taken from existing; form input cannot change them.
func NewEdit(remote Remote, existing cases.Case, logger *zap.Logger) *Controller {
	return newController(remote, ModeEdit, existing, logger)
}

func newController(remote Remote, mode Mode, existing cases.Case, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		remote:  remote,
		mode:    mode,
		editing: existing,
		logger:  logger.With(zap.String("form", mode.String())),
		state:   State{Errors: cases.FieldErrors{}},
	}
}

// Mode returns the controller's mode.
func (c *Controller) Mode() Mode { return c.mode }

// Editing returns the case being edited; zero in create mode.
func (c *Controller) Editing() cases.Case { return c.editing }

// State returns the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one submit cycle. Validation always finishes before any request
// is issued, and a failed validation issues none. The resulting state replaces
// the previous one unless a newer Submit started in the meantime.
func (c *Controller) Submit(ctx context.Context, in cases.Input) Submission {
	token := c.seq.Add(1)

	if c.mode == ModeEdit {
		in.CaseNumber = c.editing.CaseNumber
	}

	var outcome Outcome
	fields, errs := cases.Validate(in)
	if errs != nil {
		c.logger.Debug("validation failed", zap.Uint64("token", token), zap.Int("fields", len(errs)))
		outcome = ValidationFailed{Errors: errs}
	} else {
		var res api.Result
		if c.mode == ModeEdit {
			res = c.remote.UpdateCase(ctx, c.editing.ID, fields)
		} else {
			res = c.remote.CreateCase(ctx, fields)
		}
		if res.OK() {
			outcome = Succeeded{}
		} else {
			if res.ErrorResponse != nil {
				c.logger.Warn("backend rejected case", zap.String("error", res.ErrorResponse.Summary()))
			}
			outcome = RemoteRejected{Message: res.Message, ErrorResponse: res.ErrorResponse}
		}
	}

	return c.apply(token, outcome)
}

func (c *Controller) apply(token uint64, outcome Outcome) Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := Submission{Token: token, Outcome: outcome}
	if token != c.seq.Load() {
		sub.Stale = true
		c.logger.Debug("discarding stale submission", zap.Uint64("token", token))
		return sub
	}
	c.state = outcome.state()
	return sub
}
