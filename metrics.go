package pulse

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deskaudio/pulse/proto"
)

// Metrics holds the collectors a Client updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestErrors   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Events          *prometheus.CounterVec
	ConnectionState prometheus.Gauge
}

// NewMetrics creates the collectors. They still have to be registered,
// see Register.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pulse",
				Name:      "requests_total",
				Help:      "Total number of requests sent to the server",
			},
			[]string{"command"},
		),

		RequestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pulse",
				Name:      "request_errors_total",
				Help:      "Total number of failed requests",
			},
			[]string{"command", "error"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pulse",
				Name:      "request_duration_seconds",
				Help:      "Time from sending a request to receiving its reply",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),

		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pulse",
				Name:      "events_total",
				Help:      "Total number of subscription events received",
			},
			[]string{"facility", "type"},
		),

		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "pulse",
				Name:      "connection_state",
				Help:      "Connection state (0=disconnected, 1=connecting, 2=authenticating, 3=naming, 4=ready, 5=closed)",
			},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Requests, m.RequestErrors, m.RequestDuration, m.Events, m.ConnectionState} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeRequest(command string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(command).Inc()
	m.RequestDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	if err != nil {
		m.RequestErrors.WithLabelValues(command, errorLabel(err)).Inc()
	}
}

func (m *Metrics) observeEvent(ev Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(ev.Facility, ev.Type).Inc()
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.ConnectionState.Set(float64(s))
}

// errorLabel returns the error code, or "other" for errors without one.
func errorLabel(err error) string {
	var code proto.Error
	if errors.Is(err, proto.ErrConnectionTerminated) {
		return "connection_terminated"
	}
	if errors.As(err, &code) {
		return strconv.FormatUint(uint64(code), 10)
	}
	return "other"
}
