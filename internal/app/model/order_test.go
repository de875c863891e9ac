package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCalculateTotal(t *testing.T) {
	order := Order{
		OrderedItems: []OrderItem{
			{Quantity: 2, ProductInfo: ProductInfo{Price: 150}},
			{Quantity: 1, ProductInfo: ProductInfo{Price: 1000}},
		},
	}

	assert.Equal(t, 1300, order.CalculateTotal())
	assert.Equal(t, 1300, order.TotalSum)
}

func TestOrderStateTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderState
		want     bool
	}{
		{OrderStateNew, OrderStateConfirmed, true},
		{OrderStateConfirmed, OrderStateAssembled, true},
		{OrderStateAssembled, OrderStateSent, true},
		{OrderStateSent, OrderStateDelivered, true},
		{OrderStateNew, OrderStateCanceled, true},
		{OrderStateNew, OrderStateDelivered, false},
		{OrderStateDelivered, OrderStateCanceled, false},
		{OrderStateCanceled, OrderStateNew, false},
		{OrderStateBasket, OrderStateNew, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
