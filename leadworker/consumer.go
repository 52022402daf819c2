package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/orderflow/pipeline/common/consume"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/leadstore"
	"github.com/orderflow/pipeline/common/masking"
	"github.com/orderflow/pipeline/common/metrics"
	"github.com/orderflow/pipeline/common/topology"
)

var nonDigit = regexp.MustCompile(`\D`)

type Consumer struct {
	leads    *leadstore.Store
	channel  *amqp.Channel
	logger   *slog.Logger
	queue    *metrics.QueueMetrics
	business *metrics.BusinessMetrics
}

func NewConsumer(leads *leadstore.Store, channel *amqp.Channel, logger *slog.Logger, qm *metrics.QueueMetrics, business *metrics.BusinessMetrics) *Consumer {
	return &Consumer{leads: leads, channel: channel, logger: logger, queue: qm, business: business}
}

// Listen consumes InitializeOrder events and deduplicates the embedded
// customer into a Lead. A malformed record is fatal for that record only
// and the consumer moves on; store failures go through the shared retry
// path in common/consume.
func (c *Consumer) Listen(ctx context.Context) error {
	return consume.Run(ctx, c.channel, topology.QueueLead, c.logger, c.queue, c.handle)
}

func (c *Consumer) handle(ctx context.Context, body []byte, _ amqp.Table) error {
	var event domain.InitializeOrder
	if err := json.Unmarshal(body, &event); err != nil {
		return domain.NewValidationError("malformed InitializeOrder payload")
	}

	cpf := nonDigit.ReplaceAllString(event.CustomerData.CPF, "")
	email := strings.ToLower(strings.TrimSpace(event.CustomerData.Email))
	if len(cpf) != 11 || email == "" {
		c.logger.Warn("rejecting malformed lead record",
			slog.String("order_id", event.OrderID),
			slog.String("cpf", masking.CPF(cpf)),
			slog.String("email", masking.Email(email)),
		)
		return domain.NewValidationError(fmt.Sprintf("invalid customer identity for order %s", event.OrderID))
	}

	customer := domain.CustomerData{CPF: cpf, Email: email, Name: event.CustomerData.Name}

	existing, err := c.leads.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, lead := range existing {
		if lead.CPF == cpf {
			c.business.LeadsDeduplicated.Inc()
			return nil // already present, nothing to do
		}
	}

	lead, err := c.leads.FindOrCreate(ctx, customer)
	if err != nil {
		return err
	}

	c.logger.Info("lead ensured", slog.String("order_id", event.OrderID), slog.String("lead_id", lead.ID))
	return nil
}
