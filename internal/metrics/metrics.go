package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics aggregates the counters the lifecycle engine and reconciler
// report into. All methods are safe on a nil receiver so callers can run
// without observability wired.
type Metrics struct {
	registry *prometheus.Registry

	storiesCreated     *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	reconcilerTicks    prometheus.Counter
	scheduleOutcomes   *prometheus.CounterVec
}

// New builds a Metrics set on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storypress_stories_created_total",
			Help: "Stories persisted, by creation channel.",
		}, []string{"channel"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storypress_generation_failures_total",
			Help: "Collaborator failures during create-story orchestration, by stage.",
		}, []string{"stage"}),
		reconcilerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storypress_reconciler_ticks_total",
			Help: "Reconciler tick executions.",
		}),
		scheduleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storypress_schedule_outcomes_total",
			Help: "Scheduled-generation fulfillments, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.storiesCreated,
		m.generationFailures,
		m.reconcilerTicks,
		m.scheduleOutcomes,
	)
	return m
}

// Registry exposes the private registry for the embedding process.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// StoryCreated records a persisted story for the given channel.
func (m *Metrics) StoryCreated(channel string) {
	if m == nil {
		return
	}
	m.storiesCreated.WithLabelValues(channel).Inc()
}

// GenerationFailed records a collaborator failure at the given stage.
func (m *Metrics) GenerationFailed(stage string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(stage).Inc()
}

// ReconcilerTick records one reconciliation pass.
func (m *Metrics) ReconcilerTick() {
	if m == nil {
		return
	}
	m.reconcilerTicks.Inc()
}

// ScheduleOutcome records a fulfillment outcome (generated or failed).
func (m *Metrics) ScheduleOutcome(outcome string) {
	if m == nil {
		return
	}
	m.scheduleOutcomes.WithLabelValues(outcome).Inc()
}
