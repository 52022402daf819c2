// Package consume runs the manual-ack consume loop shared by every worker:
// pull a delivery, hand it to the worker's handler, then Ack/Nack/retry
// according to the shared error taxonomy in common/domain. This collapses
// what would otherwise be near-identical boilerplate in every consumer.go
// into one place.
package consume

import (
	"context"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/orderflow/pipeline/common/broker"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/metrics"
)

// Handler processes one delivery's body and returns an error from the
// shared taxonomy (domain.Err*), or nil on success.
type Handler func(ctx context.Context, body []byte, headers amqp.Table) error

// Run consumes queue until ch's connection closes or ctx is cancelled.
// ValidationError/NotFound/InvalidTransition/InsufficientStock/Conflict are
// all terminal for the record (Conflict is a no-op success, the others are
// fatal and are nacked straight to the queue's DLQ without retry, matching
// "fatal per-record" in the error handling design). Anything else is
// treated as transient and goes through broker.HandleRetry's bounded
// retry-then-DLQ.
func Run(ctx context.Context, ch *amqp.Channel, queue string, log *slog.Logger, qm *metrics.QueueMetrics, handle Handler) error {
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log.Info("consumer started", slog.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			process(ctx, ch, queue, log, qm, handle, d)
		}
	}
}

func process(ctx context.Context, ch *amqp.Channel, queue string, log *slog.Logger, qm *metrics.QueueMetrics, handle Handler, d amqp.Delivery) {
	start := time.Now()
	dctx := broker.ExtractTraceContext(ctx, d.Headers)

	err := handle(dctx, d.Body, d.Headers)

	switch {
	case err == nil, errors.Is(err, domain.ErrConflict):
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack delivery", slog.String("queue", queue), slog.Any("error", ackErr))
		}
		if qm != nil {
			qm.RecordConsume(queue, "success", time.Since(start))
		}

	case isFatal(err):
		log.Error("fatal error processing delivery, routing to dlq",
			slog.String("queue", queue), slog.Any("error", err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack delivery", slog.String("queue", queue), slog.Any("error", nackErr))
		}
		if qm != nil {
			qm.RecordConsume(queue, "fatal", time.Since(start))
		}

	default:
		log.Warn("transient error processing delivery, retrying",
			slog.String("queue", queue), slog.Any("error", err))
		retryErr := broker.HandleRetry(ch, &d)
		if retryErr != nil {
			log.Error("failed to handle retry", slog.String("queue", queue), slog.Any("error", retryErr))
		}
		// Past the retry limit HandleRetry has already nacked this delivery to
		// the DLQ. Otherwise it republished a fresh copy, so the original is
		// acked; if that republish failed, the original is nacked to the DLQ
		// instead of being dropped.
		if count, _ := d.Headers["x-retry-count"].(int64); count < broker.MaxRetryCount {
			settleErr := d.Ack(false)
			if retryErr != nil {
				settleErr = d.Nack(false, false)
			}
			if settleErr != nil {
				log.Error("failed to settle delivery after retry", slog.String("queue", queue), slog.Any("error", settleErr))
			}
		}
		if qm != nil {
			qm.RecordRetry(queue)
			qm.RecordConsume(queue, "retry", time.Since(start))
		}
	}
}

func isFatal(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrInsufficientStock)
}
