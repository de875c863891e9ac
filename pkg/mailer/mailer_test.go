package mailer

import (
	"context"
	"testing"

	"github.com/ikkim/orders-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksSender(t *testing.T) {
	cfg := &config.Config{
		Mail:  config.MailConfig{Host: "smtp.example.com", Port: 465, SSL: true},
		Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "emails"},
	}

	tests := []struct {
		sender  string
		want    interface{}
		wantErr bool
	}{
		{"smtp", &SMTPSender{}, false},
		{"kafka", &KafkaSender{}, false},
		{"log", LogSender{}, false},
		{"", LogSender{}, false},
		{"pigeon", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			cfg.Notification.Sender = tt.sender
			s, err := New(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
			assert.NoError(t, s.Close())
		})
	}
}

func TestSMTPSenderDialerSettings(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", SSL: false})
	assert.Equal(t, "smtp.example.com", s.dialer.Host)
	assert.Equal(t, 587, s.dialer.Port)
	assert.False(t, s.dialer.SSL)
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	// nothing listens on port 1; the cancelled context returns first or the
	// dial fails, either way Send reports an error
	s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{ID: "1", To: "a@example.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "a@example.com"}))
}
