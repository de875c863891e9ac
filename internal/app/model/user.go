package model

import (
	"time"
)

type UserType string

const (
	UserTypeShop  UserType = "shop"  // partner, owns one shop
	UserTypeBuyer UserType = "buyer" // default
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`        // login identifier
	PasswordHash string    `gorm:"not null" json:"-"`                                 // bcrypt
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	Company      string    `gorm:"size:40" json:"company"`
	Position     string    `gorm:"size:40" json:"position"`
	Type         UserType  `gorm:"type:varchar(5);default:'buyer';not null" json:"type"`
	IsActive     bool      `gorm:"not null" json:"is_active"` // set by email confirmation
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Contacts []Contact `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"contacts"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsShop() bool {
	return u.Type == UserTypeShop
}

// AuthToken is the opaque bearer token issued on first login and reused after.
type AuthToken struct {
	Key       string    `gorm:"primaryKey;size:40" json:"key"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

// ConfirmEmailToken proves control of the registered email address.
type ConfirmEmailToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Key       string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ConfirmEmailToken) TableName() string {
	return "confirm_email_tokens"
}

// Principal is the authenticated caller, resolved once by the auth middleware
// and passed explicitly to every service call.
type Principal struct {
	UserID uint
	Email  string
	Type   UserType
}

func (p Principal) IsShop() bool {
	return p.Type == UserTypeShop
}
