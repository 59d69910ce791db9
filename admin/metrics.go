package admin

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names exported when WithMetrics is set.
const (
	MetricRequests         = "actuator_requests_total"
	MetricRequestDuration  = "actuator_request_duration_seconds"
	MetricExposedEndpoints = "actuator_exposed_endpoints"
	MetricRebuilds         = "actuator_rebuilds_total"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	exposed  prometheus.Gauge
	rebuilds prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRequests,
			Help: "Management endpoint requests by endpoint id and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRequestDuration,
			Help:    "Management endpoint request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		exposed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricExposedEndpoints,
			Help: "Number of endpoints currently mounted.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRebuilds,
			Help: "Number of times the endpoint table was rebuilt.",
		}),
	}
	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.exposed, err = register(reg, m.exposed); err != nil {
		return nil, err
	}
	if m.rebuilds, err = register(reg, m.rebuilds); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing an identical collector that is already registered
// (several handlers may share one registry).
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *metrics) instrument(id string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"endpoint": id}
	return promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), h))
}
