package domain

import "github.com/shopspring/decimal"

// InitializeOrder is published once by INGRESS to the fan-out INITIALIZE
// exchange; both LEAD-WORKER and ORDER-WORKER consume their own copy.
type InitializeOrder struct {
	OrderID      string           `json:"orderId"`
	CustomerData CustomerData     `json:"customerData"`
	PaymentData  *PaymentData     `json:"paymentData,omitempty"`
	AddressData  *AddressData     `json:"addressData,omitempty"`
	Items        []RequestedItem  `json:"items"`
}

// StockUpdate is published by ORDER-WORKER (DECREASE, Phase B); consumed by
// STOCK-WORKER. The stock reaper does not publish it: it appends its
// compensating INCREASE entries to the ledger directly.
type StockUpdate struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Operation StockEntryType `json:"operation"`
	OrderID   string         `json:"orderId,omitempty"`
	Reason    string         `json:"reason"`
}

// ProcessTransaction is published by ORDER-WORKER's Phase E; consumed by
// PAYMENT-WORKER.
type ProcessTransaction struct {
	OrderID         string          `json:"orderId"`
	OrderTotalValue decimal.Decimal `json:"orderTotalValue"`
	PaymentData     PaymentData     `json:"paymentData"`
	AddressData     AddressData     `json:"addressData"`
	CustomerData    CustomerData    `json:"customerData"`
}

// UpdateOrder is published by PAYMENT-WORKER; consumed by UPDATE-WORKER.
type UpdateOrder struct {
	OrderID       string      `json:"orderId"`
	Status        OrderStatus `json:"status"`
	Reason        string      `json:"reason,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
}
