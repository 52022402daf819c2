package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/orderflow/pipeline/common/broker"
	"github.com/orderflow/pipeline/common/consume"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/leadstore"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/orderstore"
	"github.com/orderflow/pipeline/common/productstore"
	"github.com/orderflow/pipeline/common/stockledger"
	"github.com/orderflow/pipeline/common/topology"
)

type Consumer struct {
	orders   *orderstore.Store
	products *productstore.Store
	ledger   *stockledger.Ledger
	leads    *leadstore.Store
	channel  *amqp.Channel
	logger   *slog.Logger
	queue    *metrics.QueueMetrics
	business *metrics.BusinessMetrics
}

func NewConsumer(orders *orderstore.Store, products *productstore.Store, ledger *stockledger.Ledger, leads *leadstore.Store, channel *amqp.Channel, logger *slog.Logger, qm *metrics.QueueMetrics, business *metrics.BusinessMetrics) *Consumer {
	return &Consumer{
		orders:   orders,
		products: products,
		ledger:   ledger,
		leads:    leads,
		channel:  channel,
		logger:   logger,
		queue:    qm,
		business: business,
	}
}

// Listen consumes InitializeOrder events and runs the enrich/reserve/
// associate/create/dispatch pipeline described for this stage.
func (c *Consumer) Listen(ctx context.Context) error {
	return consume.Run(ctx, c.channel, topology.QueueOrder, c.logger, c.queue, c.handle)
}

func (c *Consumer) handle(ctx context.Context, body []byte, _ amqp.Table) error {
	var event domain.InitializeOrder
	if err := json.Unmarshal(body, &event); err != nil {
		return domain.NewValidationError("malformed InitializeOrder payload")
	}

	order, err := c.enrich(ctx, event)
	if err != nil {
		return err
	}

	if err := c.reserveStock(ctx, order); err != nil {
		return fmt.Errorf("%w: stock reservation: %v", domain.ErrTransientQueue, err)
	}

	lead, err := c.leads.FindOrCreate(ctx, event.CustomerData)
	if err != nil {
		return err
	}
	order.LeadID = lead.ID

	if err := c.orders.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.logger.Info("order already created, skipping duplicate delivery", slog.String("order_id", order.ID))
			return domain.ErrConflict
		}
		return err
	}
	c.business.OrdersCreated.Inc()
	c.logger.Info("order created", slog.String("order_id", order.ID), slog.Int("total_items", order.TotalItems))

	c.dispatchPayment(ctx, event, order)

	return nil
}

// enrich builds the Order aggregate from the requested items: each line is
// priced and named from its Product, and an item whose Product cannot be
// found is kept in the order as an unpriced placeholder rather than
// failing the whole order over one bad line; a Product that exists but is
// inactive fails the order. A zero-quantity line is kept
// too, priced at zero and never reserved against the ledger.
func (c *Consumer) enrich(ctx context.Context, event domain.InitializeOrder) (domain.Order, error) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:           event.OrderID,
		CustomerData: event.CustomerData,
		Status:       domain.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if event.AddressData != nil {
		order.AddressData = *event.AddressData
	}

	for _, requested := range event.Items {
		if requested.Quantity < 0 {
			return domain.Order{}, domain.NewValidationError(fmt.Sprintf("item %s has negative quantity", requested.ID))
		}

		product, err := c.products.Get(ctx, requested.ID)
		if errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("referenced product not found, enriching as unknown product",
				slog.String("order_id", event.OrderID), slog.String("product_id", requested.ID))
			product = domain.Product{ID: requested.ID, Name: "Unknown Product", HasStockControl: false}
		} else if err != nil {
			return domain.Order{}, err
		} else if !product.IsActive {
			return domain.Order{}, domain.NewValidationError(fmt.Sprintf("product %s is not active", requested.ID))
		}

		if product.HasStockControl && requested.Quantity > 0 {
			available, err := c.ledger.Sum(ctx, product.ID)
			if err != nil {
				return domain.Order{}, err
			}
			if available < requested.Quantity {
				return domain.Order{}, fmt.Errorf("%w: product %s has %d available, %d requested", domain.ErrInsufficientStock, product.ID, available, requested.Quantity)
			}
		}

		totalPrice := product.Price.Mul(decimal.NewFromInt(int64(requested.Quantity)))
		item := domain.OrderItem{
			ID:              requested.ID,
			Quantity:        requested.Quantity,
			ProductName:     product.Name,
			UnitPrice:       product.Price,
			TotalPrice:      totalPrice,
			HasStockControl: product.HasStockControl,
		}
		order.Items = append(order.Items, item)
		order.TotalItems += requested.Quantity
		order.TotalValue = order.TotalValue.Add(totalPrice)
	}

	return order, nil
}

// reserveStock publishes one DECREASE StockUpdate per stock-controlled line
// concurrently and waits for all publishes to complete, returning the first
// error encountered. Reservation is advisory at this point: STOCK-WORKER
// re-validates against the ledger before it commits the entry.
func (c *Consumer) reserveStock(ctx context.Context, order domain.Order) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, item := range order.Items {
		if !item.HasStockControl || item.Quantity <= 0 {
			continue
		}
		g.Go(func() error {
			return c.publishStockUpdate(gctx, domain.StockUpdate{
				ProductID: item.ID,
				Quantity:  item.Quantity,
				Operation: domain.StockDecrease,
				OrderID:   order.ID,
				Reason:    "Order sale",
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	c.business.StockDecrementsTotal.Add(float64(countStockControlled(order)))
	return nil
}

func (c *Consumer) publishStockUpdate(ctx context.Context, update domain.StockUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.channel.PublishWithContext(pctx,
		topology.ExchangeStock,
		topology.QueueStock,
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

// dispatchPayment publishes the ProcessTransaction message that hands the
// order off to PAYMENT-WORKER. A publish failure here is logged but does
// not fail the order record: the order was already durably created
// PENDING, and a lost payment dispatch is recoverable by reprocessing
// rather than by failing the whole message.
func (c *Consumer) dispatchPayment(ctx context.Context, event domain.InitializeOrder, order domain.Order) {
	var payment domain.PaymentData
	if event.PaymentData != nil {
		payment = *event.PaymentData
	}

	transaction := domain.ProcessTransaction{
		OrderID:         order.ID,
		OrderTotalValue: order.TotalValue,
		PaymentData:     payment,
		AddressData:     order.AddressData,
		CustomerData:    order.CustomerData,
	}

	body, err := json.Marshal(transaction)
	if err != nil {
		c.logger.Error("failed to marshal process transaction event", slog.String("order_id", order.ID), slog.Any("error", err))
		return
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(pctx,
		topology.ExchangePayment,
		topology.QueuePayment,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Headers:      broker.InjectTraceContext(pctx),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		c.logger.Error("failed to dispatch payment, order remains pending for manual reprocessing",
			slog.String("order_id", order.ID), slog.Any("error", err))
	}
}

func countStockControlled(order domain.Order) int {
	n := 0
	for _, item := range order.Items {
		if item.HasStockControl && item.Quantity > 0 {
			n++
		}
	}
	return n
}
