package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	5, 10, 25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1500, 2000,

	// --- Slow responses (2s - 15s), bulk renewals and sweeps ---
	2500, 5000, 7500, 10000, 15000,

	// --- Extended range for long sweeps ---
	30000, 60000, 120000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsRenewalTotal = &Metric{
	ID:          "renewalTotal",
	Name:        "renewal_total",
	Description: "Renewal attempts partitioned by kind (seat, subscription, autopay) and result.",
	Type:        "counter_vec",
	Args:        []string{"kind", "result"},
}

var MetricsRenewalRetries = &Metric{
	ID:          "renewalRetries",
	Name:        "renewal_retries_total",
	Description: "Transactions retried after a concurrency conflict.",
	Type:        "counter_vec",
	Args:        []string{"kind"},
}

var MetricsAutopayLastRun = &Metric{
	ID:          "autopayLastRun",
	Name:        "autopay_last_run_items",
	Description: "Item counts of the last autopay sweep partitioned by outcome.",
	Type:        "gauge_vec",
	Args:        []string{"outcome"},
}

// Business holds the ledger metrics observed by the services.
type Business struct {
	processDur   *prometheus.HistogramVec
	renewals     *prometheus.CounterVec
	retries      *prometheus.CounterVec
	autopayItems *prometheus.GaugeVec
}

// NewBusiness registers the ledger metrics on reg. Already registered
// collectors are reused so the constructor is safe to call more than once
// against the same registry.
func NewBusiness(reg prometheus.Registerer) *Business {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Business{
		processDur:   register(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
		renewals:     register(reg, MetricsRenewalTotal).(*prometheus.CounterVec),
		retries:      register(reg, MetricsRenewalRetries).(*prometheus.CounterVec),
		autopayItems: register(reg, MetricsAutopayLastRun).(*prometheus.GaugeVec),
	}
}

func register(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, "ledger")
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// ObserveProcess records the latency of a business step started at start.
func (b *Business) ObserveProcess(typ, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.processDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func (b *Business) CountRenewal(kind, result string) {
	if b == nil {
		return
	}
	b.renewals.WithLabelValues(kind, result).Inc()
}

func (b *Business) CountRetry(kind string) {
	if b == nil {
		return
	}
	b.retries.WithLabelValues(kind).Inc()
}

func (b *Business) SetAutopayRun(renewed, failed, skipped int) {
	if b == nil {
		return
	}
	b.autopayItems.WithLabelValues("renewed").Set(float64(renewed))
	b.autopayItems.WithLabelValues("failed").Set(float64(failed))
	b.autopayItems.WithLabelValues("skipped").Set(float64(skipped))
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

const (
	RefererKey = "X-Referer"
)

// Module provides the ledger metrics registered on the default registry,
// which the HTTP metrics endpoint serves.
var Module = fx.Options(
	fx.Provide(func() *Business { return NewBusiness(prometheus.DefaultRegisterer) }),
)
