// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
)

type Metrics struct {
	ActiveSessions   prometheus.Gauge
	MessagesReceived prometheus.Counter
	MessageLatency   prometheus.Histogram
	RoundsPlayed     *prometheus.CounterVec
	RoundScore       prometheus.Histogram
	LivesLost        prometheus.Counter
	GamesOver        prometheus.Counter
	ImportFailures   prometheus.Counter
	StorageErrors    prometheus.Counter
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of connected game sessions",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		RoundsPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_played_total",
			Help:      "Rounds submitted, by result tier",
		}, []string{"tier", "demo"}),
		RoundScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_score",
			Help:      "Points earned per real-game round",
			Buckets:   prometheus.LinearBuckets(0, 2, 6),
		}),
		LivesLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lives_lost_total",
			Help:      "Lives lost across all sessions",
		}),
		GamesOver: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_over_total",
			Help:      "Sessions that reached game over",
		}),
		ImportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_import_failures_total",
			Help:      "Rejected catalog imports",
		}),
		StorageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_storage_errors_total",
			Help:      "Catalog writes that could not be persisted",
		}),
	}

	registerer.MustRegister(
		m.ActiveSessions,
		m.MessagesReceived,
		m.MessageLatency,
		m.RoundsPlayed,
		m.RoundScore,
		m.LivesLost,
		m.GamesOver,
		m.ImportFailures,
		m.StorageErrors,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

// Handler serves this monitor's metrics in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var publishOnce sync.Once

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	// 添加expvar指标
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))

		expvar.Publish("requests", expvar.Func(func() interface{} {
			m.mutex.Lock()
			defer m.mutex.Unlock()
			return m.requestCount
		}))
	})

	go func() {
		logger.Log.Infof("Metrics server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Errorf("Metrics server stopped: %v", err)
		}
	}()
}

func (m *Monitor) IncActiveSessions() {
	m.metrics.ActiveSessions.Inc()
}

func (m *Monitor) DecActiveSessions() {
	m.metrics.ActiveSessions.Dec()
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

// ObserveRound records a graded round. Demo rounds never cost a life or score.
func (m *Monitor) ObserveRound(result models.RoundResult) {
	demo := "false"
	if result.Demo {
		demo = "true"
	}
	m.metrics.RoundsPlayed.WithLabelValues(string(result.Tier), demo).Inc()
	if result.Demo {
		return
	}
	m.metrics.RoundScore.Observe(float64(result.RoundScore))
	if result.LifeLost {
		m.metrics.LivesLost.Inc()
	}
}

func (m *Monitor) IncGamesOver() {
	m.metrics.GamesOver.Inc()
}

func (m *Monitor) IncImportFailures() {
	m.metrics.ImportFailures.Inc()
}

func (m *Monitor) IncStorageErrors() {
	m.metrics.StorageErrors.Inc()
}
