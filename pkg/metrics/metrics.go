package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
// Все методы безопасны для nil-получателя: при выключенных метриках передаётся nil
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration     *prometheus.HistogramVec
	DBQueryErrors       *prometheus.CounterVec
	DBOpenConnections   *prometheus.GaugeVec
	DBInUseConnections  *prometheus.GaugeVec
	DBIdleConnections   *prometheus.GaugeVec
	DBWaitCount         *prometheus.GaugeVec
	DBWaitDurationTotal *prometheus.GaugeVec

	ReservationOperations *prometheus.CounterVec
	CapacityRejections    *prometheus.CounterVec
	TxRetries             *prometheus.CounterVec
	RelayPublished        *prometheus.CounterVec
	RelayErrors           *prometheus.CounterVec
}

// New создает и регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в переданном реестре (удобно для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests.",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "db_query_duration_seconds",
				Help:        "Database query duration in seconds.",
				ConstLabels: constLabels,
				Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		DBQueryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "db_query_errors_total",
				Help:        "Total number of failed database queries.",
				ConstLabels: constLabels,
			},
			[]string{"operation"},
		),
		DBOpenConnections:   newPoolGauge("db_open_connections", "Number of established connections.", constLabels),
		DBInUseConnections:  newPoolGauge("db_in_use_connections", "Number of connections currently in use.", constLabels),
		DBIdleConnections:   newPoolGauge("db_idle_connections", "Number of idle connections.", constLabels),
		DBWaitCount:         newPoolGauge("db_wait_count", "Total number of connections waited for.", constLabels),
		DBWaitDurationTotal: newPoolGauge("db_wait_duration_seconds", "Total time blocked waiting for a new connection.", constLabels),
		ReservationOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "reservation_operations_total",
				Help:        "Reservation lifecycle operations by outcome.",
				ConstLabels: constLabels,
			},
			[]string{"operation", "outcome"},
		),
		CapacityRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "reservation_capacity_rejections_total",
				Help:        "Reservations rejected by capacity bound.",
				ConstLabels: constLabels,
			},
			[]string{"bound"},
		),
		TxRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "db_tx_retries_total",
				Help:        "Transactions retried after a transient failure.",
				ConstLabels: constLabels,
			},
			[]string{"isolation"},
		),
		RelayPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "change_log_relay_published_total",
				Help:        "Change log entries published to the audit sink.",
				ConstLabels: constLabels,
			},
			[]string{"change_type"},
		),
		RelayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "change_log_relay_errors_total",
				Help:        "Change log relay failures by stage.",
				ConstLabels: constLabels,
			},
			[]string{"stage"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.DBWaitDurationTotal,
		m.ReservationOperations,
		m.CapacityRejections,
		m.TxRetries,
		m.RelayPublished,
		m.RelayErrors,
	)

	return m
}

func newPoolGauge(name, help string, constLabels prometheus.Labels) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		},
		[]string{"pool"},
	)
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// ObserveDBQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// IncReservationOperation фиксирует исход операции жизненного цикла бронирования
func (m *Metrics) IncReservationOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ReservationOperations.WithLabelValues(operation, outcome).Inc()
}

// IncCapacityRejection фиксирует отказ по вместимости (bound: party | aggregate)
func (m *Metrics) IncCapacityRejection(bound string) {
	if m == nil {
		return
	}
	m.CapacityRejections.WithLabelValues(bound).Inc()
}

// IncTxRetry фиксирует повтор транзакции
func (m *Metrics) IncTxRetry(isolation string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(isolation).Inc()
}

// IncRelayPublished фиксирует опубликованную запись журнала изменений
func (m *Metrics) IncRelayPublished(changeType string) {
	if m == nil {
		return
	}
	m.RelayPublished.WithLabelValues(changeType).Inc()
}

// IncRelayError фиксирует ошибку ретранслятора журнала изменений
func (m *Metrics) IncRelayError(stage string) {
	if m == nil {
		return
	}
	m.RelayErrors.WithLabelValues(stage).Inc()
}
