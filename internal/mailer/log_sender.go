package mailer

import (
	"context"

	"go.uber.org/zap"

	"kumoney/internal/logger"
)

// LogSender writes verification links to the debug log instead of sending
// them. Config validation refuses it when ENV=production.
type LogSender struct {
	verifyURL string
	log       *zap.SugaredLogger
}

// NewLogSender creates a LogSender writing to the global logger.
func NewLogSender(verifyURL string) *LogSender {
	return &LogSender{verifyURL: verifyURL}
}

func (s *LogSender) logger() *zap.SugaredLogger {
	if s.log != nil {
		return s.log
	}
	return logger.Get()
}

// SendVerification logs the verification link for email.
func (s *LogSender) SendVerification(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link, err := VerificationLink(s.verifyURL, token)
	if err != nil {
		return err
	}
	s.logger().Debugw("verification email", "to", email, "link", link)
	return nil
}

// Close is a no-op.
func (s *LogSender) Close() error { return nil }
