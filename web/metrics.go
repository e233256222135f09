package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justinjudd/bracket/tournament"
)

// Metrics counts applied commands and tracks live sessions on its own registry
type Metrics struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
}

// NewMetrics registers the bracket collectors. The sessions gauge reads store.Len at scrape time
func NewMetrics(store interface{ Len() int }) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bracket_commands_total",
			Help: "Tournament commands applied, by command and result.",
		}, []string{"command", "result"}),
	}
	sessions := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "bracket_sessions",
		Help: "Tournament sessions held in memory.",
	}, func() float64 {
		return float64(store.Len())
	})
	m.registry.MustRegister(m.commands, sessions)
	return m
}

func (m *Metrics) observe(cmd tournament.CommandType, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.commands.WithLabelValues(string(cmd), result).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
