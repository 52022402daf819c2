package broker

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MaxRetryCount bounds in-queue redelivery before a message is routed to its DLQ.
const MaxRetryCount = 3

// DLX is the dead letter exchange every queue routes failed deliveries through.
const DLX = "dlx"

// Topology describes the exchanges and queues a worker needs declared before
// it can publish or consume. Each entry is independent; Connect declares all
// of them plus their DLQs so services can be started in any order.
type Topology struct {
	// Exchanges maps exchange name to its AMQP type ("fanout" or "direct").
	Exchanges map[string]string
	// Bindings lists queue/exchange/routingKey triples to declare and bind.
	Bindings []Binding
}

type Binding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Connect opens a connection and channel to RabbitMQ, then declares the DLX,
// the caller's exchanges, and the caller's queues (with per-queue DLQs).
func Connect(user, pass, host, port string, topo Topology) (*amqp.Channel, func() error, error) {
	address := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// A channel is a lightweight virtual connection multiplexed over the
	// single TCP connection; each service keeps one.
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(DLX, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare DLX exchange: %w", err)
	}

	for name, kind := range topo.Exchanges {
		if err := ch.ExchangeDeclare(name, kind, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", name, err)
		}
	}

	for _, b := range topo.Bindings {
		if err := declareBoundQueue(ch, b); err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, err
		}
	}

	close := func() error {
		if err := ch.Close(); err != nil {
			return err
		}
		return conn.Close()
	}

	return ch, close, nil
}

func declareBoundQueue(ch *amqp.Channel, b Binding) error {
	dlq := b.Queue + ".dlq"
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, b.Queue, DLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ %s to DLX: %w", dlq, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLX,
		"x-dead-letter-routing-key": b.Queue,
	}
	if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.Queue, err)
	}
	if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", b.Queue, b.Exchange, err)
	}

	log.Printf("queue ready: %s <- %s (key=%s), dlq=%s", b.Queue, b.Exchange, b.RoutingKey, dlq)
	return nil
}

// HandleRetry increments the message's x-retry-count header and republishes
// it to its original queue with a linear backoff. Once MaxRetryCount is
// reached it nacks without requeue, letting the queue's DLX route it to the
// queue-specific DLQ.
func HandleRetry(ch *amqp.Channel, d *amqp.Delivery) error {
	if d.Headers == nil {
		d.Headers = amqp.Table{}
	}

	retryCount, ok := d.Headers["x-retry-count"].(int64)
	if !ok {
		retryCount = 0
	}
	retryCount++
	d.Headers["x-retry-count"] = retryCount

	if retryCount >= MaxRetryCount {
		log.Printf("max retries reached for %s, routing to DLQ", d.RoutingKey)
		return d.Nack(false, false)
	}

	log.Printf("retrying delivery on %s, attempt %d", d.RoutingKey, retryCount)
	time.Sleep(time.Second * time.Duration(retryCount))

	return ch.PublishWithContext(
		context.Background(),
		d.Exchange,
		d.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Headers:      d.Headers,
			Body:         d.Body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

