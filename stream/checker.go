package stream

import (
	"fmt"

	"github.com/sarchlab/hyperfifo/rtl"
)

// Violation describes a breach of the handshake contract.
type Violation struct {
	Cycle  uint64
	Stream string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d: %s: %s", v.Cycle, v.Stream, v.Reason)
}

// Checker monitors a stream and records every cycle in which the producer
// withdrew or altered a beat that had not been accepted yet.
type Checker struct {
	name   string
	stream *Interface

	holding    bool
	held       Beat
	cycle      uint64
	transfers  uint64
	violations []Violation
}

// NewChecker creates a checker observing s.
func NewChecker(name string, s *Interface) *Checker {
	return &Checker{name: name, stream: s}
}

// Name returns the instance name.
func (c *Checker) Name() string {
	return c.name
}

// Violations returns the recorded breaches.
func (c *Checker) Violations() []Violation {
	return c.violations
}

// Transfers returns the number of accepted beats observed.
func (c *Checker) Transfers() uint64 {
	return c.transfers
}

// Eval drives nothing.
func (c *Checker) Eval() bool {
	return false
}

// Commit checks the settled stream against the beat held since the previous
// cycle.
func (c *Checker) Commit() {
	s := c.stream

	if c.holding {
		switch {
		case !s.Valid:
			c.report("valid dropped before acceptance")
		case s.Beat() != c.held:
			c.report(fmt.Sprintf("beat changed from %v to %v before acceptance",
				c.held, s.Beat()))
		}
	}

	if s.Accepted() {
		c.transfers++
	}

	c.holding = s.Valid && !s.Ready
	if c.holding {
		c.held = s.Beat()
	}

	c.cycle++
}

func (c *Checker) report(reason string) {
	c.violations = append(c.violations, Violation{
		Cycle:  c.cycle,
		Stream: c.name,
		Reason: reason,
	})
}

// Reset clears the history.
func (c *Checker) Reset() {
	c.holding = false
	c.held = Beat{}
	c.cycle = 0
	c.transfers = 0
	c.violations = nil
}

var _ rtl.Module = (*Checker)(nil)
