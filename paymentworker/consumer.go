package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orderflow/pipeline/common/broker"
	"github.com/orderflow/pipeline/common/consume"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/masking"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/orderstore"
	"github.com/orderflow/pipeline/common/topology"
	"github.com/orderflow/pipeline/common/transactionstore"
)

type Consumer struct {
	orders       *orderstore.Store
	transactions *transactionstore.Store
	channel      *amqp.Channel
	logger       *slog.Logger
	queue        *metrics.QueueMetrics
	business     *metrics.BusinessMetrics
}

func NewConsumer(orders *orderstore.Store, transactions *transactionstore.Store, channel *amqp.Channel, logger *slog.Logger, qm *metrics.QueueMetrics, business *metrics.BusinessMetrics) *Consumer {
	return &Consumer{orders: orders, transactions: transactions, channel: channel, logger: logger, queue: qm, business: business}
}

func (c *Consumer) Listen(ctx context.Context) error {
	return consume.Run(ctx, c.channel, topology.QueuePayment, c.logger, c.queue, c.handle)
}

func (c *Consumer) handle(ctx context.Context, body []byte, _ amqp.Table) error {
	var req domain.ProcessTransaction
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.NewValidationError("malformed ProcessTransaction payload")
	}
	if req.OrderID == "" || req.OrderTotalValue.IsZero() || req.PaymentData.CardNumber == "" {
		return domain.NewValidationError(fmt.Sprintf("incomplete payment request for order %s", req.OrderID))
	}

	if _, err := c.orders.Get(ctx, req.OrderID); err != nil {
		c.failOrder(ctx, req, fmt.Sprintf("Payment processing error: %v", err))
		return err
	}

	result := simulateGateway(req.PaymentData.CardNumber, req.OrderTotalValue)
	c.business.PaymentGatewayLatency.Observe(result.ProcessingTime.Seconds())

	if result.Status == domain.PaymentError {
		c.business.PaymentGatewayErrors.Inc()
		c.recordErrorTransaction(ctx, req, result)
		c.failOrder(ctx, req, fmt.Sprintf("Payment processing error: %s", result.Message))
		return fmt.Errorf("%w: %s", domain.ErrGateway, result.Message)
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		ID:             domain.TransactionID(req.OrderID),
		OrderID:        req.OrderID,
		Amount:         req.OrderTotalValue,
		PaymentStatus:  result.Status,
		AuthCode:       result.AuthCode,
		ProcessingTime: result.ProcessingTime.Milliseconds(),
		CardData:       masking.MaskCard(req.PaymentData),
		AddressData:    req.AddressData,
		CustomerData:   req.CustomerData,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.transactions.Create(ctx, txn); err != nil && !errors.Is(err, domain.ErrConflict) {
		c.failOrder(ctx, req, fmt.Sprintf("Payment processing error: %v", err))
		return err
	}

	status := domain.OrderCancelled
	reason := fmt.Sprintf("Payment declined: %s", result.Message)
	if result.Status == domain.PaymentApproved {
		status = domain.OrderProcessed
		reason = ""
		c.business.PaymentsApproved.Inc()
	} else {
		c.business.PaymentsDeclined.Inc()
	}

	if err := c.publishUpdateOrder(ctx, domain.UpdateOrder{
		OrderID:       req.OrderID,
		Status:        status,
		Reason:        reason,
		TransactionID: txn.ID,
	}); err != nil {
		return err
	}

	c.logger.Info("payment processed",
		slog.String("order_id", req.OrderID),
		slog.String("status", string(result.Status)),
	)
	return nil
}

// failOrder implements step 7 of the payment protocol: best-effort publish
// of a CANCELLED update so an order never stays PENDING forever because of
// a payment-side failure. Errors here are logged, not propagated — the
// caller is already returning the original error that triggered this path.
func (c *Consumer) failOrder(ctx context.Context, req domain.ProcessTransaction, reason string) {
	if err := c.publishUpdateOrder(ctx, domain.UpdateOrder{
		OrderID: req.OrderID,
		Status:  domain.OrderCancelled,
		Reason:  reason,
	}); err != nil {
		c.logger.Error("failed to publish cancellation after payment error",
			slog.String("order_id", req.OrderID), slog.Any("error", err))
	}
}

// recordErrorTransaction best-effort records the gateway error as an ERROR
// Transaction so there is a durable trail of the attempt even though no
// order-status update references it as the authoritative transactionId.
func (c *Consumer) recordErrorTransaction(ctx context.Context, req domain.ProcessTransaction, result gatewayResult) {
	now := time.Now().UTC()
	txn := domain.Transaction{
		ID:             domain.TransactionID(req.OrderID),
		OrderID:        req.OrderID,
		Amount:         req.OrderTotalValue,
		PaymentStatus:  domain.PaymentError,
		ProcessingTime: result.ProcessingTime.Milliseconds(),
		CardData:       masking.MaskCard(req.PaymentData),
		AddressData:    req.AddressData,
		CustomerData:   req.CustomerData,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.transactions.Create(ctx, txn); err != nil && !errors.Is(err, domain.ErrConflict) {
		c.logger.Error("failed to record error transaction", slog.String("order_id", req.OrderID), slog.Any("error", err))
	}
}

func (c *Consumer) publishUpdateOrder(ctx context.Context, update domain.UpdateOrder) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.channel.PublishWithContext(pctx,
		topology.ExchangeUpdateOrder,
		topology.QueueUpdateOrder,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Headers:      broker.InjectTraceContext(pctx),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
