package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orderflow/pipeline/common/consume"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/orderstore"
	"github.com/orderflow/pipeline/common/topology"
)

type Consumer struct {
	orders   *orderstore.Store
	channel  *amqp.Channel
	logger   *slog.Logger
	queue    *metrics.QueueMetrics
	business *metrics.BusinessMetrics
}

func NewConsumer(orders *orderstore.Store, channel *amqp.Channel, logger *slog.Logger, qm *metrics.QueueMetrics, business *metrics.BusinessMetrics) *Consumer {
	return &Consumer{orders: orders, channel: channel, logger: logger, queue: qm, business: business}
}

func (c *Consumer) Listen(ctx context.Context) error {
	return consume.Run(ctx, c.channel, topology.QueueUpdateOrder, c.logger, c.queue, c.handle)
}

// handle applies a validated status transition. The allowed-transitions
// check happens against the order's current persisted status, not against
// whatever status the message assumes it was in — a stale or duplicated
// UpdateOrder message can never move a terminal order again.
func (c *Consumer) handle(ctx context.Context, body []byte, _ amqp.Table) error {
	var update domain.UpdateOrder
	if err := json.Unmarshal(body, &update); err != nil {
		return domain.NewValidationError("malformed UpdateOrder payload")
	}

	order, err := c.orders.Get(ctx, update.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, update.OrderID)
	}
	if err != nil {
		return err
	}

	allowed := domain.AllowedTransitions[order.Status]
	if !allowed[update.Status] {
		return fmt.Errorf("%w: order %s cannot move from %s to %s", domain.ErrInvalidTransition, order.ID, order.Status, update.Status)
	}

	if err := c.orders.Transition(ctx, order.ID, update.Status, update.Reason, update.TransactionID); err != nil {
		return err
	}

	c.business.OrderTransitions.WithLabelValues(string(update.Status)).Inc()
	c.logger.Info("order transitioned",
		slog.String("order_id", order.ID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(update.Status)),
	)
	return nil
}
