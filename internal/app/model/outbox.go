package model

import (
	"time"
)

type OutboxKind string

const (
	OutboxKindConfirmEmail  OutboxKind = "confirm_email"
	OutboxKindOrderPlaced   OutboxKind = "order_placed"
	OutboxKindOrderStatus   OutboxKind = "order_status"
	OutboxKindPasswordReset OutboxKind = "password_reset"
)

// OutboxMessage is an email waiting for delivery. Rows are written in the
// request that triggers the email and drained by the dispatcher job.
type OutboxMessage struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	EventID   string     `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	Kind      OutboxKind `gorm:"size:30;not null" json:"kind"`
	Recipient string     `gorm:"size:254;not null" json:"recipient"`
	Subject   string     `gorm:"size:200;not null" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`
	SentAt    *time.Time `gorm:"index" json:"sent_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
