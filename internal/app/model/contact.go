package model

type Contact struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"-"`
	City      string `gorm:"size:50;not null" json:"city"`
	Street    string `gorm:"size:100;not null" json:"street"`
	House     string `gorm:"size:15" json:"house"`
	Structure string `gorm:"size:15" json:"structure"`
	Building  string `gorm:"size:15" json:"building"`
	Apartment string `gorm:"size:15" json:"apartment"`
	Phone     string `gorm:"size:20;not null" json:"phone"`
}

func (Contact) TableName() string {
	return "contacts"
}
