package rtl

import (
	"github.com/sarchlab/akita/v4/sim"
)

// SimulationOption configures a Simulation.
type SimulationOption func(*Simulation)

// WithMaxCycles stops the simulation after n cycles. Zero means no limit.
func WithMaxCycles(n uint64) SimulationOption {
	return func(s *Simulation) {
		s.maxCycles = n
	}
}

// WithDoneFunc stops the simulation once done returns true. It is checked
// before every cycle.
func WithDoneFunc(done func() bool) SimulationOption {
	return func(s *Simulation) {
		s.done = done
	}
}

// WithEngine runs the simulation on the given akita engine instead of a new
// serial engine.
func WithEngine(engine sim.Engine) SimulationOption {
	return func(s *Simulation) {
		s.engine = engine
	}
}

// Simulation drives a Domain from an akita event engine. Each akita tick
// event applies one clock edge to the domain.
type Simulation struct {
	*sim.TickingComponent

	engine    sim.Engine
	domain    *Domain
	freq      sim.Freq
	maxCycles uint64
	done      func() bool
}

// NewSimulation creates a simulation clocking domain at freq. The name must be
// a valid akita component name, for example "Analyzer".
func NewSimulation(
	name string,
	domain *Domain,
	freq sim.Freq,
	opts ...SimulationOption,
) *Simulation {
	s := &Simulation{
		domain: domain,
		freq:   freq,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = sim.NewSerialEngine()
	}

	s.TickingComponent = sim.NewTickingComponent(name, s.engine, freq, s)

	return s
}

// Tick applies one clock edge unless the simulation is finished. It
// implements akita's sim.Ticker.
func (s *Simulation) Tick() bool {
	if s.Finished() {
		return false
	}

	s.domain.Tick()

	return true
}

// Finished reports whether the stop condition has been reached.
func (s *Simulation) Finished() bool {
	if s.maxCycles > 0 && s.domain.Cycle() >= s.maxCycles {
		return true
	}

	return s.done != nil && s.done()
}

// Run schedules the first tick and runs the engine until the simulation
// finishes.
func (s *Simulation) Run() error {
	s.TickLater()

	return s.engine.Run()
}

// Cycles returns the number of cycles simulated so far.
func (s *Simulation) Cycles() uint64 {
	return s.domain.Cycle()
}

// Domain returns the clock domain being simulated.
func (s *Simulation) Domain() *Domain {
	return s.domain
}

// SimulatedTime returns the virtual time reached by the engine.
func (s *Simulation) SimulatedTime() sim.VTimeInSec {
	return s.engine.CurrentTime()
}
