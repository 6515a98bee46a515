package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sod"

// Registry holds the daemon's metrics. It implements the authenticator's
// observer.
type Registry struct {
	reg *prometheus.Registry

	instancesCreated   prometheus.Counter
	instancesDestroyed prometheus.Counter
	instanceLifetime   prometheus.Histogram
	frames             *prometheus.CounterVec
	attempts           *prometheus.CounterVec
	backoffSeconds     prometheus.Counter
	transactions       *prometheus.CounterVec
	sessionsOpened     prometheus.Counter
	sessionsClosed     prometheus.Counter
}

// NewRegistry creates a registry with the runtime collectors and all
// authenticator metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		instancesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "instances",
			Name:      "created_total",
			Help:      "Authentication instances created",
		}),
		instancesDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "instances",
			Name:      "destroyed_total",
			Help:      "Authentication instances destroyed",
		}),
		instanceLifetime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Time from instance creation to destruction",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "total",
			Help:      "Frames exchanged with peers",
		}, []string{"direction"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Credential validation rounds by result",
		}, []string{"result"}),
		backoffSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "backoff_seconds_total",
			Help:      "Seconds spent backing off after credential mismatches",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Finished transactions by verb and outcome",
		}, []string{"verb", "outcome"}),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Validator sessions opened",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Validator sessions closed",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.instancesCreated,
		r.instancesDestroyed,
		r.instanceLifetime,
		r.frames,
		r.attempts,
		r.backoffSeconds,
		r.transactions,
		r.sessionsOpened,
		r.sessionsClosed,
	)
	return r
}

// Register adds an extra collector, such as a Collector over live state.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) InstanceCreated() {
	r.instancesCreated.Inc()
}

func (r *Registry) InstanceDestroyed(lifetime time.Duration) {
	r.instancesDestroyed.Inc()
	r.instanceLifetime.Observe(lifetime.Seconds())
}

func (r *Registry) FrameExchanged(direction string) {
	r.frames.WithLabelValues(direction).Inc()
}

func (r *Registry) AttemptFinished(result string) {
	r.attempts.WithLabelValues(result).Inc()
}

func (r *Registry) BackoffWaited(d time.Duration) {
	r.backoffSeconds.Add(d.Seconds())
}

func (r *Registry) TransactionFinished(verb, outcome string) {
	r.transactions.WithLabelValues(verb, outcome).Inc()
}

func (r *Registry) SessionOpened() {
	r.sessionsOpened.Inc()
}

func (r *Registry) SessionClosed() {
	r.sessionsClosed.Inc()
}
