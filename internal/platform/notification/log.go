package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes e-mails to the log instead of delivering them. It is the
// sender used when SES is not configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email not delivered: no sender configured")
	return nil
}
