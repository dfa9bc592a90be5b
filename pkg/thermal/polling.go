package thermal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is the zone polling cadence when none is set.
const DefaultPollInterval = 5 * time.Second

// Reading is one polled temperature sample.
type Reading struct {
	Source      string
	Temperature Millidegrees
	At          time.Time
}

// PollingConfig configures a PollingRegistrar.
type PollingConfig struct {
	// Interval between polls of the enabled zones. Zero means
	// DefaultPollInterval.
	Interval time.Duration

	// Sink receives every successful reading. Required.
	Sink func(Reading)

	// Logger is the optional logger for debug output. If nil, logging
	// is disabled.
	Logger *slog.Logger
}

// Validate checks the configuration.
func (c *PollingConfig) Validate() error {
	if c.Sink == nil {
		return errors.New("polling registrar requires a sink")
	}
	return nil
}

// PollingRegistrar is a Registrar implementing a pull-model thermal
// framework in-process: it polls the enabled zones at a fixed interval
// and hands each successful reading to the sink. Sources that return
// ErrNoReading are skipped for that cycle.
type PollingRegistrar struct {
	mu      sync.Mutex
	exec    Executor
	sink    func(Reading)
	logger  *slog.Logger
	zones   map[string]Source
	enabled map[string]bool

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewPollingRegistrar creates a stopped registrar; call Start to begin
// polling.
func NewPollingRegistrar(cfg PollingConfig) (*PollingRegistrar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return &PollingRegistrar{
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		zones:    make(map[string]Source),
		enabled:  make(map[string]bool),
		interval: interval,
	}, nil
}

// Register implements Registrar.
func (p *PollingRegistrar) Register(src Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.zones[src.Name]; ok {
		return errors.New("zone already registered: " + src.Name)
	}
	p.zones[src.Name] = src
	return nil
}

// Enable implements Registrar.
func (p *PollingRegistrar) Enable(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.zones[name]; !ok {
		return errors.New("zone not registered: " + name)
	}
	p.enabled[name] = true
	return nil
}

// Disable implements Registrar.
func (p *PollingRegistrar) Disable(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.zones[name]; !ok {
		return errors.New("zone not registered: " + name)
	}
	delete(p.enabled, name)
	return nil
}

// Unregister implements Registrar.
func (p *PollingRegistrar) Unregister(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.enabled, name)
	delete(p.zones, name)
	return nil
}

// Start launches the polling loop reading through the given executor.
// The executor is bound here rather than at construction because zones
// are registered during attach, before the access layer exists.
// Returns an error if already running.
func (p *PollingRegistrar) Start(exec Executor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if exec == nil {
		return errors.New("polling registrar requires an executor")
	}
	if p.stop != nil {
		return errors.New("polling registrar already started")
	}
	p.exec = exec
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stop, p.done)
	return nil
}

// Stop halts the polling loop and waits for it to exit. Safe to call on
// a stopped registrar.
func (p *PollingRegistrar) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (p *PollingRegistrar) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *PollingRegistrar) pollOnce() {
	p.mu.Lock()
	exec := p.exec
	sources := make([]Source, 0, len(p.enabled))
	for name := range p.enabled {
		sources = append(sources, p.zones[name])
	}
	p.mu.Unlock()

	for _, src := range sources {
		temp, err := src.Temperature(context.Background(), exec)
		if err != nil {
			if p.logger != nil {
				p.logger.Debug("thermal poll failed",
					slog.String("source", src.Name),
					slog.String("error", err.Error()))
			}
			continue
		}
		p.sink(Reading{Source: src.Name, Temperature: temp, At: time.Now()})
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Registrar = (*PollingRegistrar)(nil)
	_ Registrar = NopRegistrar{}
)
