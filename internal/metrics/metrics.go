package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

const namespace = "tictactoe"

// Collector counts engine operations and the funds they move.
type Collector struct {
	gatherer prometheus.Gatherer

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	transfers  *prometheus.CounterVec
}

func NewCollector(registry *prometheus.Registry) *Collector {
	collector := &Collector{
		gatherer: registry,

		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "engine operations by result code",
		}, []string{"operation", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "engine operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_transfers_total",
			Help:      "amount moved in or out of escrow",
		}, []string{"kind"}),
	}

	registry.MustRegister(collector.operations, collector.duration, collector.transfers)

	return collector
}

// Observe - records the result of one engine operation.
func (that *Collector) Observe(operation string, started time.Time, err error) {
	that.operations.WithLabelValues(operation, strconv.Itoa(apperror.Code(err))).Inc()
	that.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Transfer - records funds moving through escrow, kind is one of debit, payout, refund.
func (that *Collector) Transfer(kind string, amount uint64) {
	that.transfers.WithLabelValues(kind).Add(float64(amount))
}

func (that *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{})
}
