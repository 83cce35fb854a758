package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogEmailSender writes outbound email to the structured log instead of
// delivering it. Used when no SMTP provider is configured, typically in
// development.
type LogEmailSender struct {
	Logger zerolog.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email delivery skipped, no sender configured")
	return nil
}
