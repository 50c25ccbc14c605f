// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	Spectators       prometheus.Gauge
	MatchesCompleted prometheus.Counter
	Forfeits         prometheus.Counter
	TickDuration     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected player sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live match rooms",
		}),
		Spectators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectators",
			Help:      "Number of attached spectators",
		}),
		MatchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Total matches finished, including forfeits",
		}),
		Forfeits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forfeits_total",
			Help:      "Total matches decided by a player leaving",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Simulation tick duration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.Spectators,
		m.MatchesCompleted,
		m.Forfeits,
		m.TickDuration,
	)

	return m
}

type Monitor struct {
	metrics *Metrics
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{metrics: NewMetrics(namespace)}
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}

func (m *Monitor) IncOnlinePlayers() { m.metrics.OnlinePlayers.Inc() }
func (m *Monitor) DecOnlinePlayers() { m.metrics.OnlinePlayers.Dec() }

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) SetSpectators(count int) {
	m.metrics.Spectators.Set(float64(count))
}

func (m *Monitor) MatchCompleted(forfeited bool) {
	m.metrics.MatchesCompleted.Inc()
	if forfeited {
		m.metrics.Forfeits.Inc()
	}
}

func (m *Monitor) ObserveTick(duration time.Duration) {
	m.metrics.TickDuration.Observe(duration.Seconds())
}
