package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jet/bwtest/meter"
)

type Metrics struct {
	Namespace string
	Labels    map[string]string
	// Interval is the nominal reporting window, used to size the duration buckets
	Interval time.Duration

	lock     sync.Mutex
	reported uint64

	registry *prometheus.Registry
	handler  http.Handler

	// session
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	sessionActive   prometheus.Gauge

	// throughput
	transferBytes    prometheus.Counter
	intervalsTotal   prometheus.Counter
	intervalMbps     prometheus.Gauge
	intervalDuration prometheus.Histogram
	averageMbps      prometheus.Gauge
	lastSessionBytes prometheus.Gauge
}

func (m *Metrics) Init() {
	m.registry = prometheus.NewRegistry()
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	m.sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "session",
		Name:        "started_total",
		Help:        `Total number of measurement sessions started.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.sessionsStarted)
	m.sessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "session",
		Name:        "ended_total",
		Help:        `Total number of measurement sessions ended, by reason (duration_elapsed, peer_closed, transfer_error).`,
		ConstLabels: prometheus.Labels(m.Labels),
	}, []string{"reason"})
	m.registry.MustRegister(m.sessionsEnded)
	m.sessionActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.Namespace,
		Subsystem:   "session",
		Name:        "active",
		Help:        `1 while a measurement session is running.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.sessionActive)
	m.lastSessionBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.Namespace,
		Subsystem:   "session",
		Name:        "last_total_bytes",
		Help:        `Total bytes moved by the most recently finished session.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.lastSessionBytes)
	m.averageMbps = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.Namespace,
		Subsystem:   "session",
		Name:        "last_average_mbps",
		Help:        `Average throughput of the most recently finished session, in megabits per second over the configured test duration.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.averageMbps)

	m.transferBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "transfer",
		Name:        "bytes_total",
		Help:        `Total number of bytes moved across all sessions.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.transferBytes)
	m.intervalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "interval",
		Name:        "reports_total",
		Help:        `Total number of interval reports emitted.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.intervalsTotal)
	m.intervalMbps = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.Namespace,
		Subsystem:   "interval",
		Name:        "mbps",
		Help:        `Throughput of the last closed reporting interval, in megabits per second. The divisor is the measured interval length.`,
		ConstLabels: prometheus.Labels(m.Labels),
	})
	m.registry.MustRegister(m.intervalMbps)
	m.intervalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.Namespace,
		Subsystem:   "interval",
		Name:        "duration_seconds",
		Help:        `Measured length of closed reporting intervals. Values above the nominal interval show scheduling or I/O overrun.`,
		ConstLabels: prometheus.Labels(m.Labels),
		Buckets:     m.durationBuckets(),
	})
	m.registry.MustRegister(m.intervalDuration)
}

func (m *Metrics) durationBuckets() []float64 {
	nominal := m.Interval
	if nominal <= 0 {
		nominal = meter.DefaultInterval
	}
	var buckets []float64
	for _, f := range []float64{0.5, 1, 1.005, 1.025, 1.05, 1.25, 1.5, 2.5, 5} {
		buckets = append(buckets, f*nominal.Seconds())
	}
	return buckets
}

func (m *Metrics) OnSessionStart() {
	m.lock.Lock()
	m.reported = 0
	m.lock.Unlock()
	m.sessionsStarted.Inc()
	m.sessionActive.Set(1)
}

func (m *Metrics) OnInterval(r meter.IntervalReport) {
	m.lock.Lock()
	m.reported += r.Bytes
	m.lock.Unlock()
	m.intervalsTotal.Inc()
	m.transferBytes.Add(float64(r.Bytes))
	m.intervalMbps.Set(r.Mbps)
	m.intervalDuration.Observe(r.Elapsed.Seconds())
}

// OnSummary accounts the bytes of the trailing partial window, which no
// interval report covers.
func (m *Metrics) OnSummary(s meter.Summary) {
	m.lock.Lock()
	if s.TotalBytes > m.reported {
		m.transferBytes.Add(float64(s.TotalBytes - m.reported))
	}
	m.reported = 0
	m.lock.Unlock()
	m.sessionActive.Set(0)
	m.sessionsEnded.WithLabelValues(string(s.Reason)).Inc()
	m.lastSessionBytes.Set(float64(s.TotalBytes))
	m.averageMbps.Set(s.AvgMbps)
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}
