// Package mailer delivers rendered emails through SMTP, a Kafka topic or the
// log.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/orders-backend/config"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
	gomail "gopkg.in/gomail.v2"
)

type Message struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    string `json:"kind"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New builds the sender named by cfg.Notification.Sender.
func New(cfg *config.Config) (Sender, error) {
	switch cfg.Notification.Sender {
	case "smtp":
		return NewSMTPSender(cfg.Mail), nil
	case "kafka":
		return NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	case "log", "":
		return LogSender{}, nil
	}
	return nil, fmt.Errorf("unknown notification sender %q", cfg.Notification.Sender)
}

type SMTPSender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	return &SMTPSender{cfg: cfg, dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@orders>", msg.ID))
	m.SetBody("text/plain", msg.Body)

	// gomail has no context support, the dial itself is bounded by the
	// dialer's own timeouts.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPSender) Close() error {
	return nil
}

// KafkaSender publishes the message for an external notification service.
type KafkaSender struct {
	writer *kafka.Writer
}

func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.ID)},
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
}

func (k *KafkaSender) Close() error {
	return k.writer.Close()
}

// LogSender only logs. Used in development and when no transport is set up.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Info("Email (log sender)", map[string]interface{}{
		"event_id": msg.ID,
		"to":       msg.To,
		"subject":  msg.Subject,
		"kind":     msg.Kind,
	})
	return nil
}

func (LogSender) Close() error {
	return nil
}
