package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle, byte, error, and dispatcher-outcome
// counters the adapter updates as connections are accepted, driven, and
// torn down. The spec
// places telemetry formatting/exposition out of scope; these are raw
// counters only, exported however the embedding application wires up its
// own /metrics endpoint.
type Metrics struct {
	ConnectionsAccepted  prometheus.Counter
	ConnectionsConnected prometheus.Counter
	ActiveConnections    prometheus.Gauge
	BytesReceived        prometheus.Counter
	BytesSent            prometheus.Counter
	ParseErrors          prometheus.Counter
	IdleTimeouts         prometheus.Counter
	TransportResets      prometheus.Counter
	StateTransitions     *prometheus.CounterVec
}

// NewMetrics registers a fresh set of collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer for a process-wide one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "connections_accepted_total",
			Help:      "Total number of server connections accepted.",
		}),
		ConnectionsConnected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "connections_connected_total",
			Help:      "Total number of client connections established.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "active_connections",
			Help:      "Number of connections currently established.",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "bytes_received_total",
			Help:      "Total bytes read from downstream transport sessions.",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "bytes_sent_total",
			Help:      "Total bytes written to downstream transport sessions.",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "parse_errors_total",
			Help:      "Total number of framing parse failures that closed a connection.",
		}),
		IdleTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "idle_timeouts_total",
			Help:      "Total number of connections closed by idle-timer expiry.",
		}),
		TransportResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "transport_resets_total",
			Help:      "Total number of abrupt transport resets observed.",
		}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "transport",
			Name:      "fsm_outcomes_total",
			Help:      "Dispatcher outcomes returned by fsm.Drive, by outcome.",
		}, []string{"outcome"}),
	}
}
