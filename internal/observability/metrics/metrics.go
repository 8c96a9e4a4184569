package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "fitfunnel"

// RelayMetrics exposes counters/histograms for the email relay.
type RelayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	throttledTotal  prometheus.Counter
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Total submit-email requests by provider and response status",
		}, []string{"provider", "status"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "provider_latency_seconds",
			Help:      "Latency of delivery provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		throttledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "throttled_total",
			Help:      "Requests refused by the per-client send throttle",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.providerLatency, m.throttledTotal)
	return m
}

func (m *RelayMetrics) ObserveRequest(provider, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, status).Inc()
}

func (m *RelayMetrics) ObserveProviderLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *RelayMetrics) ObserveThrottled() {
	if m == nil {
		return
	}
	m.throttledTotal.Inc()
}

// GatewayMetrics counts submissions leaving the funnel.
type GatewayMetrics struct {
	submissionsTotal *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "submissions_total",
			Help:      "Submissions sent by mode and result",
		}, []string{"mode", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "send_latency_seconds",
			Help:      "Time spent delivering one submission",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.latency)
	return m
}

func (m *GatewayMetrics) ObserveSubmission(mode, result string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(mode, result).Inc()
	m.latency.WithLabelValues(mode).Observe(seconds)
}

// WizardMetrics counts step transitions across all sessions.
type WizardMetrics struct {
	transitionsTotal *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard step transitions",
		}, []string{"from", "to"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "active_sessions",
			Help:      "Wizard sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.activeSessions)
	return m
}

// ObserveTransition satisfies funnel.TransitionObserver.
func (m *WizardMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *WizardMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
