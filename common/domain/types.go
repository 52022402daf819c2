// Package domain holds the record types and message envelopes shared by
// every worker in the pipeline: Lead, Order, Product, StockEntry,
// Transaction, and the event payloads that move between them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerData is the caller-supplied identity portion of an order
// submission; it also denormalizes onto Order and Transaction.
type CustomerData struct {
	CPF   string `json:"cpf" bson:"cpf"`
	Email string `json:"email" bson:"email"`
	Name  string `json:"name" bson:"name"`
}

// AddressData is the caller-supplied shipping address.
type AddressData struct {
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number" bson:"number"`
	Complement   string `json:"complement,omitempty" bson:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	City         string `json:"city" bson:"city"`
	State        string `json:"state" bson:"state"`
	ZipCode      string `json:"zipCode" bson:"zipCode"`
	Country      string `json:"country" bson:"country"`
}

// PaymentData is the caller-supplied card payload. It exists only in
// flight (ingress request body and the PAYMENT queue message) and is never
// persisted unmasked — see masking.MaskCard.
type PaymentData struct {
	CardNumber     string `json:"cardNumber" bson:"-"`
	CardHolderName string `json:"cardHolderName" bson:"-"`
	ExpiryMonth    string `json:"expiryMonth" bson:"-"`
	ExpiryYear     string `json:"expiryYear" bson:"-"`
	CVV            string `json:"cvv" bson:"-"`
}

// RequestedItem is an order line as submitted by the caller, before
// ORDER-WORKER enrichment.
type RequestedItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// OrderItem is an enriched order line, persisted as part of Order.Items.
type OrderItem struct {
	ID              string          `json:"id" bson:"id"`
	Quantity        int             `json:"quantity" bson:"quantity"`
	ProductName     string          `json:"productName" bson:"productName"`
	UnitPrice       decimal.Decimal `json:"unitPrice" bson:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice" bson:"totalPrice"`
	HasStockControl bool            `json:"hasStockControl" bson:"hasStockControl"`
}

// Lead is a deduplicated customer identity keyed by (email, cpf).
type Lead struct {
	ID        string    `bson:"_id" json:"id"`
	CPF       string    `bson:"cpf" json:"cpf"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessed  OrderStatus = "PROCESSED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Order is the order aggregate, created PENDING by ORDER-WORKER and
// mutated only by UPDATE-WORKER thereafter.
type Order struct {
	ID            string        `bson:"_id" json:"id"`
	LeadID        string        `bson:"leadId" json:"leadId"`
	CustomerData  CustomerData  `bson:"customerData" json:"customerData"`
	Items         []OrderItem   `bson:"items" json:"items"`
	TotalItems    int           `bson:"totalItems" json:"totalItems"`
	TotalValue    decimal.Decimal `bson:"totalValue" json:"totalValue"`
	Status        OrderStatus   `bson:"status" json:"status"`
	AddressData   AddressData   `bson:"addressData" json:"addressData"`
	Reason        string        `bson:"reason,omitempty" json:"reason,omitempty"`
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// AllowedTransitions encodes the order state machine: PENDING can move to
// PROCESSED or CANCELLED; both are terminal.
var AllowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderProcessed: true, OrderCancelled: true},
	OrderProcessed: {},
	OrderCancelled: {},
}

// Product is read-only catalog reference data from the workflow's
// perspective; it is seeded out of band.
type Product struct {
	ID              string          `bson:"_id" json:"id"`
	Name            string          `bson:"name" json:"name"`
	Price           decimal.Decimal `bson:"price" json:"price"`
	Description     string          `bson:"description" json:"description"`
	IsActive        bool            `bson:"isActive" json:"isActive"`
	HasStockControl bool            `bson:"hasStockControl" json:"hasStockControl"`
}

type StockEntryType string

const (
	StockIncrease StockEntryType = "INCREASE"
	StockDecrease StockEntryType = "DECREASE"
)

// StockEntry is one append-only ledger row. Current stock for a product is
// the sum of INCREASE quantities minus the sum of DECREASE quantities;
// entries are never updated or deleted.
type StockEntry struct {
	ID                 string         `bson:"_id" json:"id"`
	ProductID          string         `bson:"productId" json:"productId"`
	Type               StockEntryType `bson:"type" json:"type"`
	Quantity           int            `bson:"quantity" json:"quantity"`
	Reason             string         `bson:"reason" json:"reason"`
	OrderID            string         `bson:"orderId,omitempty" json:"orderId,omitempty"`
	CompensatesEntryID string         `bson:"compensatesEntryId,omitempty" json:"compensatesEntryId,omitempty"`
	CreatedAt          time.Time      `bson:"createdAt" json:"createdAt"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentDeclined PaymentStatus = "DECLINED"
	PaymentError    PaymentStatus = "ERROR"
)

// MaskedCardData is the persisted, irreversibly redacted form of
// PaymentData — see masking.MaskCard. No field here can reconstruct a full
// PAN or CVV.
type MaskedCardData struct {
	CardNumber     string `bson:"cardNumber" json:"cardNumber"`
	CardLastFour   string `bson:"cardLastFour" json:"cardLastFour"`
	CardHolderName string `bson:"cardHolderName" json:"cardHolderName"`
	ExpiryMonth    string `bson:"expiryMonth" json:"expiryMonth"`
	ExpiryYear     string `bson:"expiryYear" json:"expiryYear"`
	CVV            string `bson:"cvv" json:"cvv"`
}

// Transaction is the authoritative payment record for one order attempt.
type Transaction struct {
	ID             string          `bson:"_id" json:"id"`
	OrderID        string          `bson:"orderId" json:"orderId"`
	Amount         decimal.Decimal `bson:"amount" json:"amount"`
	PaymentStatus  PaymentStatus   `bson:"paymentStatus" json:"paymentStatus"`
	AuthCode       string          `bson:"authCode,omitempty" json:"authCode,omitempty"`
	ProcessingTime int64           `bson:"processingTime" json:"processingTime"`
	CardData       MaskedCardData  `bson:"cardData" json:"cardData"`
	AddressData    AddressData     `bson:"addressData" json:"addressData"`
	CustomerData   CustomerData    `bson:"customerData" json:"customerData"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// TransactionID derives the deterministic id fixing the payment-idempotency
// gap noted in the design notes: redelivery of the same PAYMENT message
// must not create a second Transaction row for the same order.
func TransactionID(orderID string) string {
	return "txn-" + orderID
}
