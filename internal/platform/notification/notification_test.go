package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/rs/zerolog"
)

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "test-tpl",
		Name:    "Test Template",
		Subject: "Olá {{name}}",
		Body:    "Caro {{name}}, seu código é {{code}}.",
	})

	subject, body, err := eng.Render("test-tpl", map[string]string{
		"name": "Ana",
		"code": "1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Olá Ana" {
		t.Errorf("subject = %q, want %q", subject, "Olá Ana")
	}
	if body != "Caro Ana, seu código é 1234." {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateEngine_RenderMissing(t *testing.T) {
	eng := NewTemplateEngine()
	if _, _, err := eng.Render("nonexistent", nil); err == nil {
		t.Fatal("expected error for missing template, got nil")
	}
}

func TestTemplateEngine_BuiltInTemplates(t *testing.T) {
	eng := NewTemplateEngine()
	data := map[string]string{
		"name":         "Ana",
		"profile_name": "Ana Souza",
		"profile_id":   "p-1",
		"submitted_at": "2026-01-01 10:00",
		"from":         "pending",
		"to":           "approved",
	}
	for _, id := range []string{TemplateFormSubmittedClient, TemplateFormSubmittedStaff, TemplateStatusChanged} {
		subject, body, err := eng.Render(id, data)
		if err != nil {
			t.Errorf("built-in template %q not found: %v", id, err)
			continue
		}
		if strings.Contains(subject+body, "{{") {
			t.Errorf("template %q left placeholders: %q / %q", id, subject, body)
		}
	}
}

func TestTemplateEngine_UnknownKeysLeftAsIs(t *testing.T) {
	eng := NewTemplateEngine()
	_, body, err := eng.Render(TemplateStatusChanged, map[string]string{"from": "pending"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "{{to}}") {
		t.Errorf("expected unreplaced placeholder, got %q", body)
	}
}

func TestTemplateEngine_ConcurrentAccess(t *testing.T) {
	eng := NewTemplateEngine()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			eng.RegisterTemplate(Template{ID: "c", Subject: "s", Body: "b"})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = eng.Render(TemplateFormSubmittedStaff, nil)
		}()
	}
	wg.Wait()
}

func newTestNotifier(sender EmailSender) *Notifier {
	n := NewNotifier(sender, NewTemplateEngine(), zerolog.Nop())
	n.backoff = time.Millisecond
	return n
}

func TestNotifier_SendFromTemplate(t *testing.T) {
	mock := &MockEmailSender{}
	n := newTestNotifier(mock)

	notif, err := n.SendFromTemplate(context.Background(), TemplateFormSubmittedClient,
		map[string]string{"name": "Ana", "profile_name": "Ana Souza", "submitted_at": "hoje"},
		"ana@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notif.Status != "sent" || notif.SentAt == nil {
		t.Errorf("expected sent notification, got %+v", notif)
	}
	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].To != "ana@example.com" {
		t.Errorf("to = %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Body, "Ana Souza") {
		t.Errorf("body not rendered: %q", calls[0].Body)
	}
}

func TestNotifier_RetriesThenFails(t *testing.T) {
	mock := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	n := newTestNotifier(mock)

	notif := &Notification{Recipient: "x@example.com", Subject: "s", Body: "b"}
	err := n.Send(context.Background(), notif)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(mock.Calls()) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(mock.Calls()))
	}
	if notif.Status != "failed" || notif.Error == "" {
		t.Errorf("unexpected notification state %+v", notif)
	}
}

func TestNotifier_StopsOnCancelledContext(t *testing.T) {
	mock := &MockEmailSender{ShouldFail: true, FailError: "down"}
	n := newTestNotifier(mock)
	n.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Send(ctx, &Notification{Recipient: "x@example.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mock.Calls()) != 1 {
		t.Errorf("expected a single attempt, got %d", len(mock.Calls()))
	}
}

func TestNotifier_RenderErrorDoesNotSend(t *testing.T) {
	mock := &MockEmailSender{}
	n := newTestNotifier(mock)
	if _, err := n.SendFromTemplate(context.Background(), "missing", nil, "x@example.com"); err == nil {
		t.Fatal("expected render error")
	}
	if len(mock.Calls()) != 0 {
		t.Error("sender must not be called when rendering fails")
	}
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESSender_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	s := NewSESSender(api, "noreply@casedesk.test")

	if err := s.SendEmail(context.Background(), "ana@example.com", "Assunto", "Corpo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := api.input
	if aws.ToString(in.Source) != "noreply@casedesk.test" {
		t.Errorf("source = %q", aws.ToString(in.Source))
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "ana@example.com" {
		t.Errorf("destination = %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Message.Subject.Data) != "Assunto" {
		t.Errorf("subject = %q", aws.ToString(in.Message.Subject.Data))
	}
	if aws.ToString(in.Message.Body.Text.Data) != "Corpo" {
		t.Errorf("body = %q", aws.ToString(in.Message.Body.Text.Data))
	}
}

func TestSESSender_WrapsError(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	s := NewSESSender(api, "noreply@casedesk.test")
	err := s.SendEmail(context.Background(), "a@b.c", "s", "b")
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestLogSender_NeverFails(t *testing.T) {
	var buf strings.Builder
	s := NewLogSender(zerolog.New(&buf))
	if err := s.SendEmail(context.Background(), "a@b.c", "s", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "a@b.c") {
		t.Errorf("expected recipient in log, got %q", buf.String())
	}
}
