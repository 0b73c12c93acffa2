package plugins

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the manager's Prometheus collectors. Optional; a nil
// *Metrics disables observation.
type Metrics struct {
	LoadsTotal          *prometheus.CounterVec
	UnloadsTotal        *prometheus.CounterVec
	InstantiationsTotal prometheus.Counter
	InstancesLive       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strut_plugin_loads_total",
				Help: "Plugin load attempts by resulting state",
			},
			[]string{"result"},
		),
		UnloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strut_plugin_unloads_total",
				Help: "Plugin unload attempts by resulting state",
			},
			[]string{"result"},
		),
		InstantiationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "strut_plugin_instantiations_total",
				Help: "Successful plugin instantiations",
			},
		),
		InstancesLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "strut_plugin_instances",
				Help: "Currently live plugin instances",
			},
		),
	}

	registry.MustRegister(m.LoadsTotal, m.UnloadsTotal, m.InstantiationsTotal, m.InstancesLive)
	return m
}

func (m *Metrics) observeLoad(state LoadState) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) observeUnload(state LoadState) {
	if m == nil {
		return
	}
	m.UnloadsTotal.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) observeInstantiate() {
	if m == nil {
		return
	}
	m.InstantiationsTotal.Inc()
	m.InstancesLive.Inc()
}

func (m *Metrics) observeInstanceDrop() {
	if m == nil {
		return
	}
	m.InstancesLive.Dec()
}
