// Package notification renders and delivers e-mail notifications about case
// events. Delivery is best effort: callers log failures and carry on.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/platform/metrics"
)

// Template IDs.
const (
	TemplateFormSubmittedClient = "form-submitted-client"
	TemplateFormSubmittedStaff  = "form-submitted-staff"
	TemplateStatusChanged       = "profile-status-changed"
)

// Notification represents a single outbound e-mail.
type Notification struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateFormSubmittedClient,
			Name:    "Form submitted (client)",
			Subject: "Recebemos o seu formulário",
			Body:    "Olá {{name}}, recebemos o formulário do perfil {{profile_name}} em {{submitted_at}}. Nossa equipe entrará em contato em breve.",
		},
		{
			ID:      TemplateFormSubmittedStaff,
			Name:    "Form submitted (staff)",
			Subject: "Formulário enviado: {{profile_name}}",
			Body:    "O formulário do perfil {{profile_name}} ({{profile_id}}) foi enviado em {{submitted_at}} e aguarda revisão.",
		},
		{
			ID:      TemplateStatusChanged,
			Name:    "Profile status changed",
			Subject: "Status do perfil {{profile_name}} atualizado",
			Body:    "O perfil {{profile_name}} mudou de {{from}} para {{to}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement. Keys
// without data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Notifier renders templates and delivers them through an EmailSender with a
// bounded number of attempts.
type Notifier struct {
	sender      EmailSender
	templates   *TemplateEngine
	logger      zerolog.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewNotifier(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:      sender,
		templates:   tpl,
		logger:      logger,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
	}
}

// Send delivers n, retrying transient failures. It never retries after ctx ends.
func (m *Notifier) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	var sendErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		n.Attempts = attempt
		sendErr = m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
		if sendErr == nil {
			break
		}
		if attempt == m.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			sendErr = errors.Join(sendErr, ctx.Err())
			attempt = m.maxAttempts
		case <-time.After(m.backoff * time.Duration(attempt)):
		}
	}

	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
		metrics.Notifications.WithLabelValues("email", metrics.OutcomeError).Inc()
		m.logger.Warn().Err(sendErr).
			Str("notification_id", n.ID).
			Str("template_id", n.TemplateID).
			Int("attempts", n.Attempts).
			Msg("notification delivery failed")
		return sendErr
	}

	n.Status = "sent"
	sentAt := time.Now().UTC()
	n.SentAt = &sentAt
	metrics.Notifications.WithLabelValues("email", metrics.OutcomeOK).Inc()
	return nil
}

// SendFromTemplate renders a template and sends the result to recipient.
func (m *Notifier) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	return n, m.Send(ctx, n)
}
