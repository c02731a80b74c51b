package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metric names.
const (
	UpstreamRequests   = "qubicdash_upstream_requests_total"
	RefreshLastSuccess = "qubicdash_refresh_last_success_timestamp_seconds"
	EstimatedIts       = "qubicdash_network_estimated_its"
	AverageScore       = "qubicdash_network_average_score"
	SolutionsPerHour   = "qubicdash_network_solutions_per_hour"
	Epoch              = "qubicdash_network_epoch"
	EpochProgress      = "qubicdash_network_epoch_progress_ratio"
	Price              = "qubicdash_price"
	StreamClients      = "qubicdash_ws_clients"
)

// Outcomes recorded on UpstreamRequests.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Label names of the labelled families, in WithLabelValues order.
var (
	upstreamLabels = []string{"upstream", "outcome"}
	priceLabels    = []string{"asset", "currency"}
)

// Registry holds the server's collectors on a private prometheus.Registry,
// so tests and several servers in one process never share state.
type Registry struct {
	reg      *prometheus.Registry
	upstream *prometheus.CounterVec
	price    *prometheus.GaugeVec
	gauges   map[string]prometheus.Gauge
}

// New returns a Registry with every qubicdash collector registered, plus the
// Go runtime and process collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: UpstreamRequests,
			Help: "Upstream requests by upstream and outcome.",
		}, upstreamLabels),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: Price,
			Help: "Spot price by asset and currency.",
		}, priceLabels),
		gauges: make(map[string]prometheus.Gauge),
	}
	r.reg.MustRegister(r.upstream, r.price)
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for name, help := range map[string]string{
		RefreshLastSuccess: "Unix time of the last successful refresh.",
		EstimatedIts:       "Network throughput estimate in it/s.",
		AverageScore:       "Network average score.",
		SolutionsPerHour:   "Network solutions per hour (calculated).",
		Epoch:              "Current epoch number.",
		EpochProgress:      "Fraction of the current epoch elapsed.",
		StreamClients:      "Connected WebSocket clients.",
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		r.reg.MustRegister(g)
		r.gauges[name] = g
	}
	return r
}

// Add increments counter name by delta. Label values are positional.
func (r *Registry) Add(name string, delta float64, values ...string) {
	if name != UpstreamRequests {
		slog.Warn("metrics: dropping sample for unknown counter", "name", name)
		return
	}
	c, err := r.upstream.GetMetricWithLabelValues(values...)
	if err != nil {
		slog.Warn("metrics: dropping sample", "name", name, "labels", values, "err", err)
		return
	}
	c.Add(delta)
}

// Set sets gauge name to v. Only Price takes label values.
func (r *Registry) Set(name string, v float64, values ...string) {
	if name == Price {
		g, err := r.price.GetMetricWithLabelValues(values...)
		if err != nil {
			slog.Warn("metrics: dropping sample", "name", name, "labels", values, "err", err)
			return
		}
		g.Set(v)
		return
	}
	g, ok := r.gauges[name]
	if !ok || len(values) > 0 {
		slog.Warn("metrics: dropping sample for unknown gauge", "name", name, "labels", values)
		return
	}
	g.Set(v)
}

// Value returns the current value of a series and whether it exists. Label
// values are positional, as for Add and Set. Unlabelled gauges always exist.
func (r *Registry) Value(name string, values ...string) (float64, bool) {
	var labels []string
	switch name {
	case UpstreamRequests:
		labels = upstreamLabels
	case Price:
		labels = priceLabels
	}
	if len(values) != len(labels) {
		return 0, false
	}
	want := make(map[string]string, len(labels))
	for i, l := range labels {
		want[l] = values[i]
	}

	mfs, err := r.reg.Gather()
	if err != nil {
		slog.Error("metrics: gather", "err", err)
		return 0, false
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, want) {
				if c := m.GetCounter(); c != nil {
					return c.GetValue(), true
				}
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	if len(m.GetLabel()) != len(want) {
		return false
	}
	for _, lp := range m.GetLabel() {
		if want[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

// ObserveUpstream counts one upstream request.
func (r *Registry) ObserveUpstream(upstream string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.upstream.WithLabelValues(upstream, outcome).Inc()
}

// MarkRefreshed records a successful refresh at t.
func (r *Registry) MarkRefreshed(t time.Time) {
	r.gauges[RefreshLastSuccess].Set(float64(t.Unix()))
}

// Gather returns every registered family, sorted by name.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// promLogger routes promhttp errors to slog.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	slog.Error("metrics: serve", "err", fmt.Sprint(v...))
}
