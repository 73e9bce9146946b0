package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evsched/core/events"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
)

// PromSink records optimizer runs in Prometheus metrics.
type PromSink struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	objective    *prometheus.GaugeVec
	satisfaction *prometheus.GaugeVec
	served       *prometheus.GaugeVec
	inFlight     prometheus.Gauge
}

// NewPromSink registers optimizer metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evsched_runs_total",
			Help: "Number of optimizer runs by solver and status",
		}, []string{"solver", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evsched_solve_duration_seconds",
			Help:    "Wall time spent in the solver",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"solver"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evsched_objective_value",
			Help: "Objective value of the last usable solution per instance",
		}, []string{"instance"}),
		satisfaction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evsched_satisfaction_percent",
			Help: "Delivered over required energy of the last run per instance",
		}, []string{"instance"}),
		served: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evsched_vehicles_served",
			Help: "Vehicles with delivered energy in the last run per instance",
		}, []string{"instance"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evsched_runs_in_flight",
			Help: "Instances currently in the optimizer pipeline",
		}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, s.objective); err != nil {
		return nil, err
	}
	if s.satisfaction, err = register(reg, s.satisfaction); err != nil {
		return nil, err
	}
	if s.served, err = register(reg, s.served); err != nil {
		return nil, err
	}
	if s.inFlight, err = register(reg, s.inFlight); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve updates the run counter, the duration histogram and the per
// instance gauges. Cached runs only count.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.runs.WithLabelValues(ev.Solver, ev.Status).Inc()
	if ev.Cached {
		return nil
	}
	s.duration.WithLabelValues(ev.Solver).Observe(ev.Duration.Seconds())
	if ev.Objective != nil {
		s.objective.WithLabelValues(ev.Instance).Set(*ev.Objective)
		s.satisfaction.WithLabelValues(ev.Instance).Set(ev.Satisfaction())
		s.served.WithLabelValues(ev.Instance).Set(float64(ev.Served))
	}
	return nil
}

// RecordRunEvent tracks how many instances are in flight.
func (s *PromSink) RecordRunEvent(ev events.RunEvent) error {
	switch ev.Kind {
	case events.RunStarted:
		s.inFlight.Inc()
	case events.RunSolved, events.RunFailed:
		s.inFlight.Dec()
	}
	return nil
}
