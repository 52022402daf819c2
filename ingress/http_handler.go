package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"
	"github.com/orderflow/pipeline/common/broker"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/masking"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/topology"
	"github.com/orderflow/pipeline/common/validation"
)

type handler struct {
	channel  *amqp.Channel
	business *metrics.BusinessMetrics
	logger   *slog.Logger
}

func NewHandler(channel *amqp.Channel, business *metrics.BusinessMetrics, logger *slog.Logger) *handler {
	return &handler{channel: channel, business: business, logger: logger}
}

func (h *handler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.handleSubmitOrder)
}

// handleSubmitOrder implements POST /orders: validate, sanitize, assign an
// orderId, publish InitializeOrder, respond 202. Nothing is written to the
// store on this synchronous path, so a late failure never leaves partial
// state observable to the caller.
func (h *handler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var submission validation.OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validation.Validate(&submission); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			h.logger.Warn("validation error", slog.String("error", ve.Msg))
			writeError(w, http.StatusBadRequest, ve.Msg)
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	customer, payment, address, items := validation.Sanitize(&submission)

	orderID := generateOrderID()

	event := domain.InitializeOrder{
		OrderID:      orderID,
		CustomerData: customer,
		PaymentData:  &payment,
		AddressData:  &address,
		Items:        items,
	}

	body, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	headers := broker.InjectTraceContext(ctx)
	err = h.channel.PublishWithContext(ctx,
		topology.ExchangeInitialize,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Headers:      headers,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		h.logger.Error("failed to publish initialize event",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.business.OrdersSubmitted.Inc()
	h.logger.Info("order submitted",
		slog.String("order_id", orderID),
		slog.String("email", masking.Email(customer.Email)),
	)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "order submitted",
		"orderId": orderID,
		"status":  "submitted",
	})
}

// generateOrderID builds a time-ordered opaque id: a millisecond Unix
// timestamp prefix keeps ids roughly sortable by creation time, with a
// random suffix for uniqueness across concurrent submissions.
func generateOrderID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.New().String()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
