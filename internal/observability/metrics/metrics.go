package metrics

import "github.com/prometheus/client_golang/prometheus"

// TriageMetrics exposes counters/histograms for the inbound triage flow.
type TriageMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outcomeTotal   *prometheus.CounterVec
	aiLatency      *prometheus.HistogramVec
	outboundTotal  *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
	cacheTotal     *prometheus.CounterVec
}

func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "inbound_messages_total",
			Help:      "Total inbound client messages by channel and intent",
		}, []string{"channel", "intent"}),
		outcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "outcomes_total",
			Help:      "Routing outcomes of inbound messages",
		}, []string{"handled_by", "reason"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "ai_latency_seconds",
			Help:      "Latency of AI responder calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "outbound_replies_total",
			Help:      "Automated replies sent back to clients",
		}, []string{"channel", "status"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "failures_total",
			Help:      "Failures by pipeline stage",
		}, []string{"stage"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "triage",
			Name:      "reply_cache_total",
			Help:      "AI reply cache lookups",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outcomeTotal, m.aiLatency, m.outboundTotal,
		m.failuresTotal, m.webhookLatency, m.cacheTotal)
	return m
}

func (m *TriageMetrics) ObserveInbound(channel, intent string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, intent).Inc()
}

func (m *TriageMetrics) ObserveOutcome(handledBy, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.outcomeTotal.WithLabelValues(handledBy, reason).Inc()
}

func (m *TriageMetrics) ObserveAICall(status string, seconds float64) {
	if m == nil {
		return
	}
	m.aiLatency.WithLabelValues(status).Observe(seconds)
}

func (m *TriageMetrics) ObserveOutbound(channel, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(channel, status).Inc()
}

func (m *TriageMetrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(stage).Inc()
}

func (m *TriageMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}

// ObserveCache records a reply cache hit or miss.
func (m *TriageMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}
