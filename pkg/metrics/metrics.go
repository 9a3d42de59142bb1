package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smarena"

var (
	RuleHitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_hit_counter",
			Help:      "Counts the number of rule hits",
		},
		[]string{"rule_name"},
	)

	EventCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_counter",
			Help:      "Counts the number of events sent to arena",
		},
	)

	ArenaMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_messages_total",
			Help:      "Total number of joined records handled by the arena worker (count)",
		},
		[]string{"status"},
	)

	ArenaProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arena_processing_duration_ms",
			Help:      "Processing duration per joined record in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	JoinRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_records_total",
			Help:      "Total number of inputs seen by the join stage, by outcome (count)",
		},
		[]string{"side", "outcome"},
	)

	TSSRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tss_requests_total",
			Help:      "Total number of TSS id lookups (count)",
		},
		[]string{"status"},
	)

	TSSRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tss_request_duration_ms",
			Help:      "Duration of TSS id lookups in milliseconds",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	TSSCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tss_cache_total",
			Help:      "TSS cache lookups by result (count)",
		},
		[]string{"result"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_read_total",
			Help:      "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_written_total",
			Help:      "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_message_size_bytes",
			Help:      "Size of Kafka messages in bytes",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_requests_total",
			Help:      "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_failures_total",
			Help:      "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_requests_total",
			Help:      "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	ConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Total number of retried connection attempts at startup (count)",
		},
		[]string{"target"},
	)
)

var (
	arenaOnce          sync.Once
	joinOnce           sync.Once
	brokerOnce         sync.Once
	circuitBreakerOnce sync.Once
	httpOnce           sync.Once
)

func RegisterArenaMetrics() {
	arenaOnce.Do(func() {
		prometheus.MustRegister(RuleHitCounter)
		prometheus.MustRegister(EventCounter)
		prometheus.MustRegister(ArenaMessagesTotal)
		prometheus.MustRegister(ArenaProcessingDuration)
		prometheus.MustRegister(TSSRequestsTotal)
		prometheus.MustRegister(TSSRequestDuration)
		prometheus.MustRegister(TSSCacheTotal)
	})
}

func RegisterJoinMetrics() {
	joinOnce.Do(func() {
		prometheus.MustRegister(JoinRecordsTotal)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(KafkaMessagesReadTotal)
		prometheus.MustRegister(KafkaMessagesWrittenTotal)
		prometheus.MustRegister(KafkaMessageSizeBytes)
		prometheus.MustRegister(ConnectAttemptsTotal)
	})
}

func RegisterCircuitBreakerMetrics() {
	circuitBreakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func RegisterHTTPMetrics() {
	httpOnce.Do(func() {
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func IncRuleHit(ruleName string) {
	RuleHitCounter.WithLabelValues(ruleName).Inc()
}

func IncEventSent() {
	EventCounter.Inc()
}

func ObserveArenaDuration(duration time.Duration, status string) {
	ArenaMessagesTotal.WithLabelValues(status).Inc()
	ArenaProcessingDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncJoinRecord(side, outcome string) {
	JoinRecordsTotal.WithLabelValues(side, outcome).Inc()
}

func IncTSSRequest(status string, duration time.Duration) {
	TSSRequestsTotal.WithLabelValues(status).Inc()
	TSSRequestDuration.Observe(float64(duration.Milliseconds()))
}

func IncTSSCache(result string) {
	TSSCacheTotal.WithLabelValues(result).Inc()
}

func IncKafkaMessagesRead(service, topic string, sizeBytes int) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
	KafkaMessageSizeBytes.WithLabelValues(service, topic, "in").Observe(float64(sizeBytes))
}

func IncKafkaMessagesWritten(service, topic string, sizeBytes int) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
	KafkaMessageSizeBytes.WithLabelValues(service, topic, "out").Observe(float64(sizeBytes))
}

func IncConnectAttempt(target string) {
	ConnectAttemptsTotal.WithLabelValues(target).Inc()
}
