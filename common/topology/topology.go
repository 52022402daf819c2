// Package topology names the RabbitMQ exchanges and queues every worker
// binds to, so the names are defined once instead of duplicated per main.go.
package topology

import "github.com/orderflow/pipeline/common/broker"

const (
	ExchangeInitialize = "initialize.order" // fanout: one copy per subscribed queue
	QueueLead          = "initialize.order.lead"
	QueueOrder         = "initialize.order.order"

	ExchangeStock = "stock.update" // direct
	QueueStock    = "stock.update"

	ExchangePayment = "process.transaction" // direct
	QueuePayment    = "process.transaction"

	ExchangeUpdateOrder = "update.order" // direct
	QueueUpdateOrder    = "update.order"
)

// Full declares every exchange and queue in the pipeline. Any worker can
// connect with this topology; workers only publish or consume the subset
// relevant to their role, but declaring everything everywhere means startup
// order between workers never matters.
func Full() broker.Topology {
	return broker.Topology{
		Exchanges: map[string]string{
			ExchangeInitialize:  "fanout",
			ExchangeStock:       "direct",
			ExchangePayment:     "direct",
			ExchangeUpdateOrder: "direct",
		},
		Bindings: []broker.Binding{
			{Queue: QueueLead, Exchange: ExchangeInitialize, RoutingKey: ""},
			{Queue: QueueOrder, Exchange: ExchangeInitialize, RoutingKey: ""},
			{Queue: QueueStock, Exchange: ExchangeStock, RoutingKey: QueueStock},
			{Queue: QueuePayment, Exchange: ExchangePayment, RoutingKey: QueuePayment},
			{Queue: QueueUpdateOrder, Exchange: ExchangeUpdateOrder, RoutingKey: QueueUpdateOrder},
		},
	}
}
