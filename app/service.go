// Package app assembles the optimizer and its collaborators from the
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/evsched/api"
	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/cache"
	"github.com/kilianp07/evsched/core/events"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	coremon "github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/core/optimizer"
	"github.com/kilianp07/evsched/core/runlog"
	_ "github.com/kilianp07/evsched/infra/cache"
	"github.com/kilianp07/evsched/infra/loader"
	"github.com/kilianp07/evsched/infra/logger"
	"github.com/kilianp07/evsched/infra/metrics"
	"github.com/kilianp07/evsched/infra/monitoring"
	"github.com/kilianp07/evsched/infra/mqtt"
	_ "github.com/kilianp07/evsched/infra/postgres"
	"github.com/kilianp07/evsched/infra/solver"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// Service owns the runner and every resource it was wired with.
type Service struct {
	Runner *optimizer.Runner
	Store  runlog.Store
	Source *loader.DirSource

	cfg       *config.Config
	cache     cache.Cache
	sink      coremetrics.MetricsSink
	publisher *mqtt.PahoClient
	bus       *eventbus.TypedBus[events.RunEvent]
	collector <-chan struct{}
	stop      context.CancelFunc
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	solver.SetLogger(logger.New("solver"))
	backend, err := solver.New(cfg.Solver.Module())
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	runner, err := optimizer.NewRunner(optimizer.Config{
		Model:       cfg.Model.Schedule(),
		TimeLimit:   cfg.Solver.TimeLimit(),
		Matcher:     cfg.Model.Matcher,
		Parallelism: cfg.Optimizer.Parallelism,
		Publish:     cfg.Optimizer.Publish,
	}, backend, logger.New("optimizer"))
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	svc := &Service{Runner: runner, cfg: cfg, log: logg}
	if err := svc.wire(); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) wire() error {
	cfg := s.cfg
	s.Source = loader.NewDirSource(cfg.Instances.Dir, cfg.Instances.Pattern)
	s.Runner.SetSource(s.Source)

	store, err := runlog.NewStore(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	s.Store = store
	s.Runner.SetStore(store)

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	s.cache = c
	s.Runner.SetCache(c)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	s.sink = sink
	s.Runner.SetMetrics(sink)

	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.publisher = client
		s.Runner.SetPublisher(client)
	} else if cfg.Optimizer.Publish {
		s.log.Warnf("optimizer.publish is set but mqtt.broker is empty; schedules will not be published")
	}

	s.bus = eventbus.NewTyped[events.RunEvent]()
	s.Runner.SetBus(s.bus)
	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.collector = metrics.StartEventCollector(ctx, s.bus, sink)
	return nil
}

// Names returns the file names of instances 1..count.
func (s *Service) Names() []string {
	names := make([]string, 0, s.cfg.Instances.Count)
	for n := 1; n <= s.cfg.Instances.Count; n++ {
		names = append(names, s.Source.Name(n))
	}
	return names
}

// Solve runs the named instances and returns their outcomes in order.
func (s *Service) Solve(ctx context.Context, names []string) []optimizer.Outcome {
	return s.Runner.BatchOutcomes(ctx, names)
}

// Serve exposes the HTTP API until ctx is canceled.
func (s *Service) Serve(ctx context.Context) error {
	router := api.NewRouter(api.Options{
		Store:  s.Store,
		Token:  s.cfg.Server.Token,
		Solver: s.Runner.SolverName(),
	})
	return api.Serve(ctx, s.cfg.Server.Addr, router, logger.New("api"))
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.bus != nil {
		s.bus.Close()
	}
	if s.stop != nil {
		s.stop()
		<-s.collector
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if c, ok := s.cache.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	closeSink(s.sink)
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, s := range v.Sinks {
			closeSink(s)
		}
	case interface{ Close() }:
		v.Close()
	}
}
