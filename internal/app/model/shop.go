package model

import (
	"time"
)

type Shop struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	URL       *string   `gorm:"column:url" json:"url"`                       // last imported price list
	UserID    *uint     `gorm:"uniqueIndex" json:"-"`                        // one shop per user
	State     bool      `gorm:"not null;default:true" json:"state"`          // accepting orders
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Categories []Category `gorm:"many2many:shop_categories" json:"-"`
}

func (Shop) TableName() string {
	return "shops"
}

type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"` // may be assigned by a price list
	Name string `gorm:"size:40;not null" json:"name"`

	Shops []Shop `gorm:"many2many:shop_categories" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
