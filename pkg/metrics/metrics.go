package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WorkflowExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_workflow_executions_total",
			Help: "Total number of registration workflow executions by outcome (count)",
		},
		[]string{"outcome"},
	)

	WorkflowStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registration_workflow_step_duration_ms",
			Help:    "Duration of workflow steps in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"step", "status"},
	)

	WorkflowStepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_workflow_step_failures_total",
			Help: "Total number of workflow step failures by step and failure code (count)",
		},
		[]string{"step", "code"},
	)

	RouterDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_router_deliveries_total",
			Help: "Total number of fan-out target deliveries (count)",
		},
		[]string{"bus", "target_type", "status"},
	)

	RouterMatchedRules = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_router_matched_rules",
			Help:    "Number of rules matched per routed event",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"bus"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of messages waiting in a queue (count)",
		},
		[]string{"queue"},
	)

	QueueInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_in_flight",
			Help: "Current number of delivered but unacknowledged messages (count)",
		},
		[]string{"queue"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages moved to the dead-letter queue (count)",
		},
		[]string{"queue"},
	)

	RedriveAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_redrive_attempts_total",
			Help: "Total number of caller-side workflow redrive attempts (count)",
		},
		[]string{"step"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)
)

func RegisterWorkflowMetrics() {
	prometheus.MustRegister(WorkflowExecutionsTotal)
	prometheus.MustRegister(WorkflowStepDuration)
	prometheus.MustRegister(WorkflowStepFailuresTotal)
	prometheus.MustRegister(RedriveAttemptsTotal)
}

func RegisterRouterMetrics() {
	prometheus.MustRegister(RouterDeliveriesTotal)
	prometheus.MustRegister(RouterMatchedRules)
}

func RegisterQueueMetrics() {
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(QueueInFlight)
	prometheus.MustRegister(DLQMessagesTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterRateLimitMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func ObserveWorkflowStepDuration(step, status string, duration time.Duration) {
	WorkflowStepDuration.WithLabelValues(step, status).Observe(float64(duration.Milliseconds()))
}

func IncWorkflowExecution(outcome string) {
	WorkflowExecutionsTotal.WithLabelValues(outcome).Inc()
}

func IncWorkflowStepFailure(step, code string) {
	WorkflowStepFailuresTotal.WithLabelValues(step, code).Inc()
}

func IncRouterDelivery(bus, targetType, status string) {
	RouterDeliveriesTotal.WithLabelValues(bus, targetType, status).Inc()
}

func ObserveRouterMatchedRules(bus string, matched int) {
	RouterMatchedRules.WithLabelValues(bus).Observe(float64(matched))
}

func SetQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

func SetQueueInFlight(queue string, inFlight int) {
	QueueInFlight.WithLabelValues(queue).Set(float64(inFlight))
}

func IncDLQMessages(queue string) {
	DLQMessagesTotal.WithLabelValues(queue).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}
