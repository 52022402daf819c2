package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics contains HTTP-related Prometheus metrics.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// QueueMetrics contains consumer-side Prometheus metrics, one set per queue.
type QueueMetrics struct {
	ConsumedTotal   *prometheus.CounterVec
	ProcessDuration *prometheus.HistogramVec
	RetriedTotal    *prometheus.CounterVec
}

// BusinessMetrics contains pipeline-specific counters shared across workers.
// Each worker instantiates only the fields its stage touches.
type BusinessMetrics struct {
	OrdersSubmitted       prometheus.Counter
	OrdersCreated         prometheus.Counter
	LeadsDeduplicated     prometheus.Counter
	StockDecrementsTotal  prometheus.Counter
	StockCompensations    prometheus.Counter
	PaymentsApproved      prometheus.Counter
	PaymentsDeclined      prometheus.Counter
	PaymentGatewayErrors  prometheus.Counter
	PaymentGatewayLatency prometheus.Histogram
	OrderTransitions      *prometheus.CounterVec
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    serviceName + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func NewQueueMetrics(serviceName string) *QueueMetrics {
	return &QueueMetrics{
		ConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_messages_consumed_total",
				Help: "Total number of messages consumed, by outcome",
			},
			[]string{"queue", "outcome"},
		),
		ProcessDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    serviceName + "_message_process_duration_seconds",
				Help:    "Message processing duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
		RetriedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_messages_retried_total",
				Help: "Total number of message redeliveries via the retry path",
			},
			[]string{"queue"},
		),
	}
}

func NewBusinessMetrics(serviceName string) *BusinessMetrics {
	return &BusinessMetrics{
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_orders_submitted_total",
			Help: "Total number of orders submitted via ingress",
		}),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_orders_created_total",
			Help: "Total number of order documents created",
		}),
		LeadsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_leads_deduplicated_total",
			Help: "Total number of lead submissions matched to an existing lead",
		}),
		StockDecrementsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_stock_decrements_total",
			Help: "Total number of DECREASE stock updates published (orderworker) or ledger entries appended (stockworker)",
		}),
		StockCompensations: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_stock_compensations_total",
			Help: "Total number of compensating INCREASE ledger entries appended by the reaper",
		}),
		PaymentsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_payments_approved_total",
			Help: "Total number of simulated payments approved",
		}),
		PaymentsDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_payments_declined_total",
			Help: "Total number of simulated payments declined",
		}),
		PaymentGatewayErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: serviceName + "_payment_gateway_errors_total",
			Help: "Total number of simulated gateway errors",
		}),
		PaymentGatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    serviceName + "_payment_gateway_duration_seconds",
			Help:    "Simulated payment gateway call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		OrderTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_order_transitions_total",
				Help: "Total number of order status transitions applied, by target status",
			},
			[]string{"to"},
		),
	}
}

func (m *HTTPMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *QueueMetrics) RecordConsume(queue, outcome string, duration time.Duration) {
	m.ConsumedTotal.WithLabelValues(queue, outcome).Inc()
	m.ProcessDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

func (m *QueueMetrics) RecordRetry(queue string) {
	m.RetriedTotal.WithLabelValues(queue).Inc()
}
