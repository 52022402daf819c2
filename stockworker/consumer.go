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
	"github.com/orderflow/pipeline/common/productstore"
	"github.com/orderflow/pipeline/common/stockledger"
	"github.com/orderflow/pipeline/common/topology"
)

type Consumer struct {
	ledger   *stockledger.CachedLedger
	products *productstore.Store
	channel  *amqp.Channel
	logger   *slog.Logger
	queue    *metrics.QueueMetrics
	business *metrics.BusinessMetrics
}

func NewConsumer(ledger *stockledger.CachedLedger, products *productstore.Store, channel *amqp.Channel, logger *slog.Logger, qm *metrics.QueueMetrics, business *metrics.BusinessMetrics) *Consumer {
	return &Consumer{ledger: ledger, products: products, channel: channel, logger: logger, queue: qm, business: business}
}

func (c *Consumer) Listen(ctx context.Context) error {
	return consume.Run(ctx, c.channel, topology.QueueStock, c.logger, c.queue, c.handle)
}

// handle appends one ledger entry per StockUpdate message. DECREASE entries
// re-validate against the current ledger sum: ORDER-WORKER's Phase A
// precheck is advisory, this is the commit point.
func (c *Consumer) handle(ctx context.Context, body []byte, _ amqp.Table) error {
	var update domain.StockUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return domain.NewValidationError("malformed StockUpdate payload")
	}

	if update.Quantity <= 0 {
		return domain.NewValidationError(fmt.Sprintf("stock update for product %s has non-positive quantity", update.ProductID))
	}
	if update.Operation != domain.StockIncrease && update.Operation != domain.StockDecrease {
		return domain.NewValidationError(fmt.Sprintf("unknown stock operation %q", update.Operation))
	}

	product, err := c.products.Get(ctx, update.ProductID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, update.ProductID)
	}
	if err != nil {
		return err
	}
	if !product.IsActive {
		return domain.NewValidationError(fmt.Sprintf("product %s is not active", update.ProductID))
	}

	if update.Operation == domain.StockDecrease {
		available, err := c.ledger.Sum(ctx, update.ProductID)
		if err != nil {
			return err
		}
		if available < update.Quantity {
			return fmt.Errorf("%w: product %s has %d available, %d requested", domain.ErrInsufficientStock, update.ProductID, available, update.Quantity)
		}
	}

	entry, err := c.ledger.Append(ctx, update.ProductID, update.Operation, update.Quantity, update.Reason, update.OrderID)
	if err != nil {
		return err
	}

	if update.Operation == domain.StockDecrease {
		c.business.StockDecrementsTotal.Inc()
	}
	c.logger.Info("stock ledger entry appended",
		slog.String("entry_id", entry.ID),
		slog.String("product_id", entry.ProductID),
		slog.String("type", string(entry.Type)),
		slog.Int("quantity", entry.Quantity),
	)
	return nil
}
