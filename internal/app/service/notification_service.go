package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/mailer"
	"github.com/ikkim/orders-backend/pkg/metrics"
)

// websocket event types
const (
	EventNewOrder    = "new_order"
	EventOrderStatus = "order_status"
)

var emailTemplates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"mul": func(a, b int) int { return a * b },
}).Parse(`
{{define "confirm_email"}}Hello {{.Name}},

your email confirmation token is {{.Token}}

Send it together with your email to /api/v1/user/register/confirm to activate the account.
{{end}}
{{define "password_reset"}}Hello {{.Name}},

use the token {{.Token}} at /api/v1/user/password_reset/confirm to set a new password.
The token expires at {{.ExpiresAt}}. If you did not ask for a reset, ignore this email.
{{end}}
{{define "order_placed"}}Hello {{.Name}},

your order #{{.OrderID}} has been formed.
{{range .Items}}- {{.ProductInfo.Product.Name}} x {{.Quantity}} = {{mul .Quantity .ProductInfo.Price}}
{{end}}Total: {{.Total}}
{{end}}
{{define "order_status"}}Hello {{.Name}},

the status of your order #{{.OrderID}} is now "{{.State}}".
{{end}}`))

type NotificationService interface {
	SendConfirmation(user *model.User, token string) error
	SendPasswordReset(user *model.User, reset *model.PasswordReset) error
	NotifyOrderPlaced(order *model.Order, buyer *model.User, shopOwnerIDs []uint) error
	NotifyOrderStatus(order *model.Order, buyer *model.User) error
	DispatchPending(ctx context.Context) (sent int, failed int, err error)
}

type notificationService struct {
	outboxRepo  repository.OutboxRepository
	sender      mailer.Sender
	pusher      Pusher
	locker      Locker
	metrics     *metrics.Metrics
	batchSize   int
	maxAttempts int
}

func NewNotificationService(
	outboxRepo repository.OutboxRepository,
	sender mailer.Sender,
	pusher Pusher,
	locker Locker,
	m *metrics.Metrics,
	batchSize, maxAttempts int,
) NotificationService {
	if pusher == nil {
		pusher = noopPusher{}
	}
	return &notificationService{
		outboxRepo:  outboxRepo,
		sender:      sender,
		pusher:      pusher,
		locker:      locker,
		metrics:     m,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

func displayName(u *model.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

func (s *notificationService) enqueue(kind model.OutboxKind, to, subject, tmpl string, data interface{}) error {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}

	msg := &model.OutboxMessage{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Recipient: to,
		Subject:   subject,
		Body:      body.String(),
	}
	if err := s.outboxRepo.Insert(msg); err != nil {
		return err
	}

	logger.Info("Email queued", map[string]interface{}{
		"event_id": msg.EventID,
		"kind":     kind,
	})
	return nil
}

func (s *notificationService) SendConfirmation(user *model.User, token string) error {
	return s.enqueue(model.OutboxKindConfirmEmail, user.Email, "Email confirmation token", "confirm_email",
		map[string]interface{}{"Name": displayName(user), "Token": token})
}

func (s *notificationService) SendPasswordReset(user *model.User, reset *model.PasswordReset) error {
	return s.enqueue(model.OutboxKindPasswordReset, user.Email, "Password reset token", "password_reset",
		map[string]interface{}{
			"Name":      displayName(user),
			"Token":     reset.Token,
			"ExpiresAt": reset.ExpiresAt.UTC().Format(time.RFC1123),
		})
}

func (s *notificationService) NotifyOrderPlaced(order *model.Order, buyer *model.User, shopOwnerIDs []uint) error {
	for _, ownerID := range shopOwnerIDs {
		s.pusher.SendToUser(ownerID, EventNewOrder, map[string]interface{}{
			"order_id": order.ID,
			"state":    order.State,
		})
	}

	return s.enqueue(model.OutboxKindOrderPlaced, buyer.Email, "Order formed", "order_placed",
		map[string]interface{}{
			"Name":    displayName(buyer),
			"OrderID": order.ID,
			"Items":   order.OrderedItems,
			"Total":   order.TotalSum,
		})
}

func (s *notificationService) NotifyOrderStatus(order *model.Order, buyer *model.User) error {
	s.pusher.SendToUser(buyer.ID, EventOrderStatus, map[string]interface{}{
		"order_id": order.ID,
		"state":    order.State,
	})

	return s.enqueue(model.OutboxKindOrderStatus, buyer.Email, "Order status update", "order_status",
		map[string]interface{}{
			"Name":    displayName(buyer),
			"OrderID": order.ID,
			"State":   order.State,
		})
}

// DispatchPending sends one batch of queued emails. Failures are recorded on
// the row and retried on the next run until maxAttempts.
func (s *notificationService) DispatchPending(ctx context.Context) (int, int, error) {
	if s.locker != nil {
		release, err := s.locker.Lock(ctx, "outbox-dispatch")
		if err != nil {
			logger.Debug("Outbox dispatch skipped, another dispatcher is running", nil)
			return 0, 0, nil
		}
		defer release()
	}

	msgs, err := s.outboxRepo.FetchPending(s.batchSize, s.maxAttempts)
	if err != nil {
		logger.Error("Failed to fetch pending outbox messages", err)
		return 0, 0, err
	}

	sent, failed := 0, 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}

		sendErr := s.sender.Send(ctx, mailer.Message{
			ID:      msg.EventID,
			To:      msg.Recipient,
			Subject: msg.Subject,
			Body:    msg.Body,
			Kind:    string(msg.Kind),
		})
		if sendErr != nil {
			failed++
			s.metrics.OutboxDelivered("failed")
			logger.Warn("Email delivery failed", map[string]interface{}{
				"event_id": msg.EventID,
				"attempt":  msg.Attempts + 1,
				"error":    sendErr.Error(),
			})
			if err := s.outboxRepo.MarkFailed(msg.ID, sendErr.Error()); err != nil {
				logger.Error("Failed to record outbox failure", err, map[string]interface{}{
					"event_id": msg.EventID,
				})
			}
			continue
		}

		if err := s.outboxRepo.MarkSent(msg.ID, time.Now()); err != nil {
			logger.Error("Failed to mark outbox message sent", err, map[string]interface{}{
				"event_id": msg.EventID,
			})
			continue
		}
		sent++
		s.metrics.OutboxDelivered("sent")
	}

	if len(msgs) > 0 {
		logger.Info("Outbox batch dispatched", map[string]interface{}{
			"sent":   sent,
			"failed": failed,
		})
	}
	return sent, failed, nil
}
