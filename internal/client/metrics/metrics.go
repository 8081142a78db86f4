// Package metrics collects gateway request counters and latencies with
// Prometheus client types. The CLI keeps them in a private registry and
// prints them on demand; nothing is exported over HTTP.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	requestsName = "researcher_gateway_requests_total"
	latencyName  = "researcher_gateway_request_duration_seconds"
)

// Collector implements gateway.Recorder.
type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector registers the gateway metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: requestsName,
			Help: "Backend requests by method and outcome (HTTP status, transport_error or canceled).",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    latencyName,
			Help:    "Backend request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(c.requests, c.latency)
	return c
}

func (c *Collector) ObserveRequest(method, outcome string, elapsed time.Duration) {
	c.requests.WithLabelValues(method, outcome).Inc()
	c.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RequestStat is one row of Summary.
type RequestStat struct {
	Method  string
	Outcome string
	Count   uint64
}

func (s RequestStat) String() string {
	return fmt.Sprintf("%-7s %-16s %d", s.Method, s.Outcome, s.Count)
}

// Summary reads the request counters back from g, sorted by method then
// outcome.
func Summary(g prometheus.Gatherer) ([]RequestStat, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []RequestStat
	for _, mf := range families {
		if mf.GetName() != requestsName {
			continue
		}
		for _, m := range mf.GetMetric() {
			st := RequestStat{Count: uint64(m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "method":
					st.Method = lp.GetValue()
				case "outcome":
					st.Outcome = lp.GetValue()
				}
			}
			out = append(out, st)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out, nil
}
