package rtl

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// MaxSettlePasses bounds the number of Eval passes per cycle. A design that
// needs more has a combinational loop.
const MaxSettlePasses = 64

// HookPosCycle fires once per cycle, after the signals settled and before the
// clock edge. The hook item is the cycle number.
var HookPosCycle = &sim.HookPos{Name: "Cycle"}

// Domain is a single clock domain. All modules in a domain share one clock.
type Domain struct {
	sim.HookableBase

	name    string
	modules []Module
	cycle   uint64
}

// NewDomain creates a clock domain holding the given modules.
func NewDomain(name string, modules ...Module) *Domain {
	d := &Domain{name: name}
	d.Add(modules...)

	return d
}

// Name returns the name of the domain.
func (d *Domain) Name() string {
	return d.name
}

// Add appends modules to the domain.
func (d *Domain) Add(modules ...Module) {
	d.modules = append(d.modules, modules...)
}

// Modules returns the modules clocked by the domain.
func (d *Domain) Modules() []Module {
	return d.modules
}

// Cycle returns the number of clock edges applied since the last reset.
func (d *Domain) Cycle() uint64 {
	return d.cycle
}

// Settle evaluates all modules until the signals stop changing and returns
// the number of passes it took.
func (d *Domain) Settle() int {
	for pass := 1; pass <= MaxSettlePasses; pass++ {
		changed := false
		for _, m := range d.modules {
			if m.Eval() {
				changed = true
			}
		}

		if !changed {
			return pass
		}
	}

	log.Panicf("domain %s did not settle after %d passes, combinational loop?",
		d.name, MaxSettlePasses)

	return 0
}

// Tick settles the signals and applies one clock edge.
func (d *Domain) Tick() {
	d.Settle()

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosCycle,
		Item:   d.cycle,
	})

	for _, m := range d.modules {
		m.Commit()
	}

	d.cycle++
}

// RunCycles applies n clock edges.
func (d *Domain) RunCycles(n uint64) {
	for i := uint64(0); i < n; i++ {
		d.Tick()
	}
}

// Reset resets every module and the cycle counter.
func (d *Domain) Reset() {
	for _, m := range d.modules {
		m.Reset()
	}

	d.cycle = 0
}
