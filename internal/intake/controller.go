// Package intake drives the multi-step form from the client side: it keeps
// local edits, saves section drafts, validates before the final submission
// and serialises its own operations.
package intake

import (
	"context"
	"errors"
	"sync"

	"github.com/casedesk/casedesk/internal/domain/form"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/pkg/casedeskclient"
)

// ErrBusy is returned when an operation is requested while another one is
// still in flight.
var ErrBusy = errors.New("intake: operation in progress")

// State of the controller.
type State string

const (
	StateEditing          State = "editing"
	StateSavingDraft      State = "saving_draft"
	StateValidating       State = "validating"
	StateSavingFinal      State = "saving_final"
	StateSubmitted        State = "submitted"
	StateValidationFailed State = "validation_failed"
)

// API is the part of the casedesk client the controller uses.
type API interface {
	GetForm(ctx context.Context, profileID string) (*casedeskclient.Form, error)
	SaveSection(ctx context.Context, profileID, section string, req casedeskclient.DraftRequest) (*casedeskclient.SaveResult, error)
	Submit(ctx context.Context, profileID string, req casedeskclient.SubmitRequest) (*casedeskclient.SubmitResult, error)
}

type Controller struct {
	api       API
	profileID string

	mu          sync.Mutex
	busy        bool
	state       State
	step        int
	persisted   map[string]string
	edits       map[string]string
	version     int
	pendingJump *int
	errs        []apperr.FieldError
	message     string
	nav         form.Navigation
	redirect    string
}

func NewController(api API, profileID string) *Controller {
	return &Controller{
		api:       api,
		profileID: profileID,
		state:     StateEditing,
		persisted: map[string]string{},
		edits:     map[string]string{},
	}
}

// begin marks the controller busy. The returned func clears the flag and
// must run when the call settles.
func (c *Controller) begin(next State) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrBusy
	}
	c.busy = true
	c.state = next
	c.message = ""
	return func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}, nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Load fetches the document and resumes at its last step.
func (c *Controller) Load(ctx context.Context) error {
	done, err := c.begin(StateEditing)
	if err != nil {
		return err
	}
	defer done()

	f, err := c.api.GetForm(ctx, c.profileID)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted = copyValues(f.Fields)
	c.edits = map[string]string{}
	c.version = f.Version
	c.step = f.LastStep
	if !f.Editable {
		c.state = StateSubmitted
	}
	return nil
}

// Set records a local edit. Nothing is sent until a draft is saved. Inputs
// are disabled while a save or submission is pending.
func (c *Controller) Set(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.edits[name] = value
	return nil
}

// Values returns the edits overlaid on the persisted values.
func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return form.MergeSubmit(c.persisted, c.edits)
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) Version() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Errors returns the field errors of the last failed validation.
func (c *Controller) Errors() []apperr.FieldError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]apperr.FieldError(nil), c.errs...)
}

// Message returns the user-facing message of the last operation.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Navigation returns the step to show after a failed submission.
func (c *Controller) Navigation() form.Navigation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav
}

// Redirect returns the view the server sent the client to after a
// successful submission, such as the summary view.
func (c *Controller) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// settle drops the edits that were sent unchanged.
func (c *Controller) settle(sent map[string]string) {
	for k, v := range sent {
		if e, ok := c.edits[k]; ok && e == v {
			delete(c.edits, k)
		}
	}
}

// draftPayload builds the section payload. Empty edits fall back to the
// persisted value so a draft never blanks a saved answer.
func (c *Controller) draftPayload(s *form.Section) map[string]string {
	return form.Restrict(s, form.MergeDraft(c.persisted, c.edits))
}

// SaveDraft saves the current section.
func (c *Controller) SaveDraft(ctx context.Context) error {
	return c.saveDraft(ctx, nil)
}

// JumpTo saves the current section and moves to step once the save succeeds.
// A failed save leaves the step unchanged.
func (c *Controller) JumpTo(ctx context.Context, step int) error {
	if step < 0 || step > form.TerminalStep {
		return apperr.Validation("Etapa inválida", []apperr.FieldError{{Path: "redirectStep", Message: form.MsgInvalidOption}})
	}
	return c.saveDraft(ctx, &step)
}

func (c *Controller) saveDraft(ctx context.Context, jump *int) error {
	done, err := c.begin(StateSavingDraft)
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	section, ok := form.SectionAt(c.step)
	if !ok {
		c.mu.Unlock()
		return apperr.NotFound("Etapa do formulário não encontrada")
	}
	c.pendingJump = jump
	payload := c.draftPayload(section)
	sent := copyValues(c.edits)
	version := c.version
	c.mu.Unlock()

	res, err := c.api.SaveSection(ctx, c.profileID, section.Key, casedeskclient.DraftRequest{
		Fields: payload, RedirectStep: jump, Version: version,
	})
	if err != nil {
		c.mu.Lock()
		c.pendingJump = nil
		c.mu.Unlock()
		c.fail(err)
		c.setState(StateEditing)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range payload {
		c.persisted[k] = v
	}
	c.settle(form.Restrict(section, sent))
	c.version = res.Version
	if c.pendingJump != nil {
		c.step = *c.pendingJump
		c.pendingJump = nil
	}
	c.errs = nil
	c.message = res.Message
	c.state = StateEditing
	return nil
}

// Submit sends the whole document. The current section is validated locally
// first; from the review screen the whole document is. A local failure
// makes no network call.
func (c *Controller) Submit(ctx context.Context, fromReview, isEditing bool) error {
	done, err := c.begin(StateValidating)
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	step := c.step
	values := form.MergeSubmit(c.persisted, c.edits)
	sent := copyValues(c.edits)
	version := c.version
	c.mu.Unlock()

	// The review screen is only reachable from the terminal step too.
	if step != form.TerminalStep {
		err := apperr.New(apperr.CodeNotTerminalStep, "O envio do formulário só é permitido na última etapa").
			With("redirectStep", form.TerminalStep)
		c.fail(err)
		c.mu.Lock()
		c.nav = form.Navigation{Step: form.TerminalStep}
		c.state = StateEditing
		c.mu.Unlock()
		return err
	}

	var local []apperr.FieldError
	if fromReview {
		local = form.ValidateDocument(values)
	} else if s, ok := form.SectionAt(step); ok {
		local = s.Validate(values)
	}
	if len(local) > 0 {
		c.invalid(local, fromReview)
		return apperr.Validation("Existem campos inválidos no formulário", local)
	}

	c.setState(StateSavingFinal)
	res, err := c.api.Submit(ctx, c.profileID, casedeskclient.SubmitRequest{
		Fields: values, IsEditing: isEditing, Step: step, FromReview: fromReview, Version: version,
	})
	if err != nil {
		if ae, ok := casedeskclient.AsAPIError(err); ok && len(ae.Errors) > 0 {
			c.invalid(fromClientErrors(ae.Errors), fromReview)
		} else {
			c.setState(StateEditing)
		}
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted = values
	c.settle(sent)
	c.version = res.Version
	c.errs = nil
	c.message = res.Message
	c.nav = form.Navigation{}
	c.redirect = res.Redirect
	c.state = StateSubmitted
	return nil
}

// invalid records errs and, from the review screen, moves to the first
// invalid step.
func (c *Controller) invalid(errs []apperr.FieldError, fromReview bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = errs
	c.state = StateValidationFailed
	if fromReview {
		if step, ok := form.FirstInvalidStep(errs); ok {
			c.step = step
			c.nav = form.Navigation{Step: step}
		}
	}
}

// fail sets the user-facing message for err.
func (c *Controller) fail(err error) {
	msg := UserMessage(err)
	c.mu.Lock()
	c.message = msg
	c.mu.Unlock()
}

// Edit leaves the failed or submitted state and returns to editing.
func (c *Controller) Edit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.busy {
		c.state = StateEditing
	}
}

// UserMessage maps err to what the client shows. Server NOT_FOUND and
// CONFLICT messages are shown verbatim and any other server error as the
// generic message. Locally raised errors keep their message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := casedeskclient.AsAPIError(err); ok {
		switch ae.Code {
		case casedeskclient.CodeNotFound, casedeskclient.CodeConflict:
			return ae.Message
		}
		return apperr.GenericMessage
	}
	if ae, ok := apperr.As(err); ok && ae.Code != apperr.CodeInternal {
		return ae.Message
	}
	return apperr.GenericMessage
}

func fromClientErrors(in []casedeskclient.FieldError) []apperr.FieldError {
	out := make([]apperr.FieldError, len(in))
	for i, fe := range in {
		out[i] = apperr.FieldError{Path: fe.Path, Message: fe.Message, Rule: fe.Rule}
	}
	return out
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
