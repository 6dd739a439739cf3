package server

import (
	"fmt"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// MetricsHooks counts requests and responses of a Service:
//
//	skv_requests_total{command="hget"}  received requests per command
//	skv_responses_total{status="200"}   executed requests per response status
//	skv_responses_sent_total            responses written to a connection
type MetricsHooks struct {
	set      *metrics.Set
	requests map[string]*metrics.Counter
	sent     *metrics.Counter
}

// NewMetricsHooks creates the counters in set
func NewMetricsHooks(set *metrics.Set) *MetricsHooks {
	m := &MetricsHooks{
		set:      set,
		requests: make(map[string]*metrics.Counter, len(common.CommandNames)+1),
		sent:     set.GetOrCreateCounter("skv_responses_sent_total"),
	}
	for _, name := range append([]string{"unknown"}, common.CommandNames...) {
		m.requests[name] = set.GetOrCreateCounter(fmt.Sprintf(`skv_requests_total{command=%q}`, name))
	}
	return m
}

// Register attaches the hooks to the builder
func (m *MetricsHooks) Register(b *ServiceBuilder) *ServiceBuilder {
	return b.OnReceived(m.onReceived).
		OnExecuted(m.onExecuted).
		OnAfterSend(m.sent.Inc)
}

func (m *MetricsHooks) onReceived(req common.CommandRequest) {
	if c, ok := m.requests[req.Name()]; ok {
		c.Inc()
	}
}

func (m *MetricsHooks) onExecuted(resp common.CommandResponse) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`skv_responses_total{status="%d"}`, resp.Status)).Inc()
}
