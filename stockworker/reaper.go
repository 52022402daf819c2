package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/orderstore"
	"github.com/orderflow/pipeline/common/stockledger"
)

// Reaper periodically scans the stock ledger for DECREASE entries tied to
// an order that was never durably created: ORDER-WORKER's Phase B
// publishes a reservation before Phase D's idempotent create lands, so a
// crash between the two leaves an orphaned reservation with no order to
// eventually cancel it. The reaper is the out-of-band compensator chosen
// over an in-line rollback in ORDER-WORKER (see design notes).
type Reaper struct {
	ledger   *stockledger.Ledger
	orders   *orderstore.Store
	logger   *slog.Logger
	business *metrics.BusinessMetrics
	interval time.Duration
	grace    time.Duration
}

func NewReaper(ledger *stockledger.Ledger, orders *orderstore.Store, logger *slog.Logger, business *metrics.BusinessMetrics, interval, grace time.Duration) *Reaper {
	return &Reaper{ledger: ledger, orders: orders, logger: logger, business: business, interval: interval, grace: grace}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.grace)

	entries, err := r.ledger.UncompensatedDecreases(ctx, cutoff)
	if err != nil {
		r.logger.Error("reaper failed to list uncompensated decreases", slog.Any("error", err))
		return
	}

	for _, entry := range entries {
		compensated, err := r.ledger.HasCompensation(ctx, entry.ID)
		if err != nil {
			r.logger.Error("reaper failed to check compensation", slog.String("entry_id", entry.ID), slog.Any("error", err))
			continue
		}
		if compensated {
			continue
		}

		exists, err := r.orders.Exists(ctx, entry.OrderID)
		if err != nil {
			r.logger.Error("reaper failed to check order existence", slog.String("order_id", entry.OrderID), slog.Any("error", err))
			continue
		}
		if exists {
			continue // reservation belongs to a real, still-pending order
		}

		if _, err := r.ledger.AppendCompensation(ctx, entry); err != nil {
			r.logger.Error("reaper failed to append compensation", slog.String("entry_id", entry.ID), slog.Any("error", err))
			continue
		}

		r.business.StockCompensations.Inc()
		r.logger.Info("reaper compensated orphaned reservation",
			slog.String("entry_id", entry.ID),
			slog.String("product_id", entry.ProductID),
			slog.String("order_id", entry.OrderID),
		)
	}
}
