package hashgraph

import "github.com/rcrowley/go-metrics"

// Metrics is the small set of counters the gossip node and RPC surface
// update, grounded on the teacher's gossip.go marking a debouncer metric
// on every push; rcrowley/go-metrics is the teacher's metrics library of
// choice, generalized here from one counter to the handful this engine
// needs observability into.
type Metrics struct {
	GossipRounds   metrics.Counter
	EventsMerged   metrics.Counter
	EventsRejected metrics.Counter
	RPCRequests    metrics.Counter
}

// NewMetrics registers this node's counters against registry, or the
// library's default registry if nil.
func NewMetrics(registry metrics.Registry) *Metrics {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}

	return &Metrics{
		GossipRounds:   metrics.GetOrRegisterCounter("hashgraph.gossip.rounds", registry),
		EventsMerged:   metrics.GetOrRegisterCounter("hashgraph.events.merged", registry),
		EventsRejected: metrics.GetOrRegisterCounter("hashgraph.events.rejected", registry),
		RPCRequests:    metrics.GetOrRegisterCounter("hashgraph.rpc.requests", registry),
	}
}
