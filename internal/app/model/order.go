package model

import (
	"time"
)

type OrderState string

const (
	OrderStateBasket    OrderState = "basket"    // active cart
	OrderStateNew       OrderState = "new"       // placed by the buyer
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateAssembled OrderState = "assembled"
	OrderStateSent      OrderState = "sent"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCanceled  OrderState = "canceled"
)

// orderTransitions lists the states a partner may move a placed order to.
var orderTransitions = map[OrderState][]OrderState{
	OrderStateNew:       {OrderStateConfirmed, OrderStateCanceled},
	OrderStateConfirmed: {OrderStateAssembled, OrderStateCanceled},
	OrderStateAssembled: {OrderStateSent, OrderStateCanceled},
	OrderStateSent:      {OrderStateDelivered, OrderStateCanceled},
}

func (s OrderState) CanTransitionTo(next OrderState) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_one_basket_per_user,where:state = 'basket'" json:"-"`
	State     OrderState `gorm:"type:varchar(15);not null;index" json:"state"`
	ContactID *uint      `gorm:"index" json:"-"`
	CreatedAt time.Time  `json:"dt"`
	UpdatedAt time.Time  `json:"-"`

	// TotalSum is computed from the loaded items, see CalculateTotal.
	TotalSum int `gorm:"-" json:"total_sum"`

	User         User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Contact      *Contact    `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL" json:"contact"`
	OrderedItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"ordered_items"`
}

func (Order) TableName() string {
	return "orders"
}

// CalculateTotal sums quantity * price over the loaded items.
func (o *Order) CalculateTotal() int {
	total := 0
	for _, item := range o.OrderedItems {
		total += item.Quantity * item.ProductInfo.Price
	}
	o.TotalSum = total
	return total
}

type OrderItem struct {
	ID            uint `gorm:"primarykey" json:"id"`
	OrderID       uint `gorm:"not null;uniqueIndex:idx_order_item_unique,priority:1" json:"-"`
	ProductInfoID uint `gorm:"not null;uniqueIndex:idx_order_item_unique,priority:2;index" json:"-"`
	Quantity      int  `gorm:"not null" json:"quantity"`

	ProductInfo ProductInfo `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE" json:"product_info"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
