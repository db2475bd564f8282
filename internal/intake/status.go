package intake

import (
	"context"
	"sync"

	"github.com/casedesk/casedesk/pkg/casedeskclient"
)

// WorkflowAPI updates one workflow sub-status.
type WorkflowAPI interface {
	UpdateWorkflow(ctx context.Context, profileID, field, value string) (*casedeskclient.WorkflowResult, error)
}

// StatusSelector shows a workflow status optimistically. A failed update
// rolls the shown value back to the server's last-known-good value.
type StatusSelector struct {
	api       WorkflowAPI
	profileID string
	field     string

	mu        sync.Mutex
	shown     string
	confirmed string
	busy      bool
}

func NewStatusSelector(api WorkflowAPI, profileID, field, initial string) *StatusSelector {
	return &StatusSelector{api: api, profileID: profileID, field: field, shown: initial, confirmed: initial}
}

// Value returns the value currently shown.
func (s *StatusSelector) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}

func (s *StatusSelector) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Select shows value immediately and sends it. On failure the shown value
// becomes the server's current value, or the last confirmed one when the
// response carries none.
func (s *StatusSelector) Select(ctx context.Context, value string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.shown = value
	s.mu.Unlock()

	res, err := s.api.UpdateWorkflow(ctx, s.profileID, s.field, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		rollback := s.confirmed
		if ae, ok := casedeskclient.AsAPIError(err); ok && ae.Current != nil {
			rollback = *ae.Current
		}
		s.shown, s.confirmed = rollback, rollback
		return err
	}
	s.shown, s.confirmed = res.Status, res.Status
	return nil
}
