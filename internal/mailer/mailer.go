// Package mailer delivers account verification emails over SMTP, through an
// AMQP queue consumed by a separate mail worker, or to the application log.
package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"kumoney/internal/config"
)

const verificationSubject = "Verify your KU Money account"

// Sender delivers verification emails.
type Sender interface {
	SendVerification(ctx context.Context, email, token string) error
	Close() error
}

// VerificationEmail is the payload published to the mail queue.
type VerificationEmail struct {
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Link        string    `json:"link"`
	RequestedAt time.Time `json:"requested_at"`
}

// New builds the Sender selected by cfg.EmailTransport.
func New(cfg *config.Config) (Sender, error) {
	switch cfg.EmailTransport {
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			From:      cfg.MailFrom,
			VerifyURL: cfg.VerifyURL,
		}), nil
	case "amqp":
		conn, ch, err := DialQueue(cfg.AMQPURL, cfg.AMQPExchange, 3, time.Second)
		if err != nil {
			return nil, err
		}
		sender := NewQueueSender(ch, cfg.AMQPExchange, cfg.AMQPRoutingKey, cfg.VerifyURL)
		sender.conn = conn
		return sender, nil
	case "log":
		return NewLogSender(cfg.VerifyURL), nil
	default:
		return nil, fmt.Errorf("mailer: unknown transport %q", cfg.EmailTransport)
	}
}

// VerificationLink appends token as the "token" query parameter of base.
func VerificationLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("mailer: parse verify url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func verificationBody(link string) string {
	return strings.Join([]string{
		"Hello,",
		"",
		"Thanks for signing up for KU Money. Confirm your email address by opening the link below:",
		"",
		link,
		"",
		"The link expires in one hour. If you did not create an account you can ignore this email.",
	}, "\r\n")
}
