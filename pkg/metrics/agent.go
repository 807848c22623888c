package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dhcpagent"

// Agent holds the packet and configuration counters updated on the hot path.
// A nil *Agent is valid and records nothing.
type Agent struct {
	Packets        *prometheus.CounterVec
	Malformed      prometheus.Counter
	Dropped        *prometheus.CounterVec
	FDBMisses      *prometheus.CounterVec
	TypeMismatches prometheus.Counter
	Option82       *prometheus.CounterVec
	ConfigLoads    *prometheus.CounterVec
	Generation     prometheus.Gauge
}

func NewAgent(reg prometheus.Registerer) *Agent {
	a := &Agent{
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_total",
			Help:      "DHCP packets processed, by interface, direction and mode.",
		}, []string{"interface", "direction", "mode"}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_packets_total",
			Help:      "Packets dropped because they could not be decoded.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_packets_total",
			Help:      "Packets dropped, by reason.",
		}, []string{"reason"}),
		FDBMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fdb_misses_total",
			Help:      "Snoop mode requests forwarded without a resolved ingress port.",
		}, []string{"interface"}),
		TypeMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_type_mismatch_total",
			Help:      "Rule evaluations whose literal kind did not match the value.",
		}),
		Option82: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "option82_inserted_total",
			Help:      "Relay agent information options inserted, by interface.",
		}, []string{"interface"}),
		ConfigLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_loads_total",
			Help:      "Interface configuration loads, by result.",
		}, []string{"result"}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_generation",
			Help:      "Generation of the active interface configuration snapshot.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			a.Packets, a.Malformed, a.Dropped, a.FDBMisses,
			a.TypeMismatches, a.Option82, a.ConfigLoads, a.Generation,
		)
	}
	return a
}

func (a *Agent) Packet(iface, direction, mode string) {
	if a != nil {
		a.Packets.WithLabelValues(iface, direction, mode).Inc()
	}
}

func (a *Agent) MalformedPacket() {
	if a != nil {
		a.Malformed.Inc()
	}
}

func (a *Agent) Drop(reason string) {
	if a != nil {
		a.Dropped.WithLabelValues(reason).Inc()
	}
}

func (a *Agent) FDBMiss(iface string) {
	if a != nil {
		a.FDBMisses.WithLabelValues(iface).Inc()
	}
}

func (a *Agent) TypeMismatch() {
	if a != nil {
		a.TypeMismatches.Inc()
	}
}

func (a *Agent) Option82Inserted(iface string) {
	if a != nil {
		a.Option82.WithLabelValues(iface).Inc()
	}
}

func (a *Agent) ConfigLoad(ok bool, generation uint64) {
	if a == nil {
		return
	}
	if !ok {
		a.ConfigLoads.WithLabelValues("rejected").Inc()
		return
	}
	a.ConfigLoads.WithLabelValues("applied").Inc()
	a.Generation.Set(float64(generation))
}
