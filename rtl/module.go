// Package rtl provides the two-phase clocked simulation used by every
// gateware model in this module.
//
// Each cycle is split in two. During settling, every module's Eval drives its
// combinational outputs from its registered state and the current values of
// the signals it reads; Eval is repeated across all modules until no signal
// changes. At the clock edge, every module's Commit updates its registered
// state from the settled signals. Commit never writes a signal and never
// reads another module's state, so the order in which modules commit does
// not matter.
package rtl

// Module is a piece of synchronous logic.
type Module interface {
	// Name returns the instance name of the module.
	Name() string

	// Eval drives the combinational outputs of the module. It returns true
	// if any signal driven by the module changed value.
	Eval() bool

	// Commit applies the clock edge to the registered state.
	Commit()

	// Reset returns the registered state to its power-on value.
	Reset()
}

// Drive assigns v to the signal at dst and reports whether the value changed.
func Drive[T comparable](dst *T, v T) bool {
	if *dst == v {
		return false
	}

	*dst = v

	return true
}
