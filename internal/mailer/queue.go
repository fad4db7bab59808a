package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"kumoney/internal/logger"
)

// Publisher is the subset of *amqp.Channel used to publish messages.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueSender publishes verification emails to an AMQP exchange for a mail
// worker to deliver.
type QueueSender struct {
	ch         Publisher
	conn       *amqp.Connection
	exchange   string
	routingKey string
	verifyURL  string
	now        func() time.Time
}

// NewQueueSender creates a QueueSender publishing through ch.
func NewQueueSender(ch Publisher, exchange, routingKey, verifyURL string) *QueueSender {
	return &QueueSender{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		verifyURL:  verifyURL,
		now:        time.Now,
	}
}

// DialQueue connects to the broker, retrying up to retries times, and
// declares a durable direct exchange.
func DialQueue(url, exchange string, retries int, delay time.Duration) (*amqp.Connection, *amqp.Channel, error) {
	const op = "mailer.DialQueue"

	var conn *amqp.Connection
	var err error
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(delay)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return conn, ch, nil
}

// SendVerification publishes a VerificationEmail as persistent JSON.
func (s *QueueSender) SendVerification(ctx context.Context, email, token string) error {
	const op = "mailer.QueueSender.SendVerification"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	link, err := VerificationLink(s.verifyURL, token)
	if err != nil {
		return err
	}

	body, err := json.Marshal(VerificationEmail{
		Email:       email,
		Subject:     verificationSubject,
		Link:        link,
		RequestedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.ch.Publish(s.exchange, s.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Get().Debugw("verification email queued", "to", email, "exchange", s.exchange)
	return nil
}

// Close closes the channel and, when owned, the connection.
func (s *QueueSender) Close() error {
	err := s.ch.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
