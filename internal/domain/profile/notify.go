package profile

import (
	"context"
	"time"

	"github.com/casedesk/casedesk/internal/platform/notification"
)

const notifyTimeout = 30 * time.Second

// Notifier delivers templated e-mail.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// SetNotifier enables status change e-mails to staffEmail. Nothing is sent
// when staffEmail is empty.
func (s *Service) SetNotifier(n Notifier, staffEmail string) {
	s.notifier = n
	s.staffEmail = staffEmail
}

// Wait blocks until pending status e-mails have been attempted.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) notifyStatusChanged(ctx context.Context, p *Profile, from, to Status) {
	if s.notifier == nil || s.staffEmail == "" || p == nil {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	data := map[string]string{
		"profile_name": p.Name,
		"profile_id":   p.ID.String(),
		"from":         statusLabels[from],
		"to":           statusLabels[to],
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if _, err := s.notifier.SendFromTemplate(bg, notification.TemplateStatusChanged, data, s.staffEmail); err != nil {
			s.logger.Warn().Err(err).Str("profile_id", p.ID.String()).Msg("status change notification failed")
		}
	}()
}
