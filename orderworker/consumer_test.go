package main

import (
	"testing"

	"github.com/orderflow/pipeline/common/domain"
)

func TestCountStockControlled(t *testing.T) {
	order := domain.Order{
		Items: []domain.OrderItem{
			{ID: "1", HasStockControl: true, Quantity: 2},
			{ID: "2", HasStockControl: false, Quantity: 1},
			{ID: "3", HasStockControl: true, Quantity: 1},
		},
	}

	if got := countStockControlled(order); got != 2 {
		t.Fatalf("countStockControlled() = %d, want 2", got)
	}
}

func TestCountStockControlledSkipsZeroQuantity(t *testing.T) {
	order := domain.Order{
		Items: []domain.OrderItem{
			{ID: "1", HasStockControl: true, Quantity: 0},
			{ID: "2", HasStockControl: true, Quantity: 3},
		},
	}

	if got := countStockControlled(order); got != 1 {
		t.Fatalf("countStockControlled() = %d, want 1", got)
	}
}

func TestCountStockControlledNoItems(t *testing.T) {
	if got := countStockControlled(domain.Order{}); got != 0 {
		t.Fatalf("countStockControlled() = %d, want 0", got)
	}
}
