package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// InjectTraceContext writes the active span's trace context into AMQP
// headers so the consumer can continue the same trace. RabbitMQ has no
// built-in propagation like gRPC does.
func InjectTraceContext(ctx context.Context) amqp.Table {
	headers := make(amqp.Table)
	propagator := otel.GetTextMapPropagator()
	carrier := &AMQPHeadersCarrier{headers: headers}
	propagator.Inject(ctx, carrier)
	return headers
}

// ExtractTraceContext reads trace context out of a delivery's headers and
// attaches it to ctx so a consumer span continues the publisher's trace.
func ExtractTraceContext(ctx context.Context, headers amqp.Table) context.Context {
	propagator := otel.GetTextMapPropagator()
	carrier := &AMQPHeadersCarrier{headers: headers}
	return propagator.Extract(ctx, carrier)
}

// AMQPHeadersCarrier adapts amqp.Table to propagation.TextMapCarrier.
type AMQPHeadersCarrier struct {
	headers amqp.Table
}

func (c *AMQPHeadersCarrier) Get(key string) string {
	if val, ok := c.headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (c *AMQPHeadersCarrier) Set(key, value string) {
	c.headers[key] = value
}

func (c *AMQPHeadersCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for k := range c.headers {
		keys = append(keys, k)
	}
	return keys
}
