package stream

import "github.com/sarchlab/hyperfifo/rtl"

// Sink is a testbench consumer. It asserts Ready according to its pattern and
// records every accepted beat.
type Sink struct {
	name    string
	Input   *Interface
	pattern Pattern

	received []Beat
	cycle    uint64
}

// NewSink creates a consumer for a stream of the given width.
func NewSink(name string, width int, pattern Pattern) *Sink {
	if pattern == nil {
		pattern = Always
	}

	return &Sink{
		name:    name,
		Input:   NewInterface(width),
		pattern: pattern,
	}
}

// Name returns the instance name.
func (s *Sink) Name() string {
	return s.name
}

// SetPattern replaces the ready pattern.
func (s *Sink) SetPattern(p Pattern) {
	s.pattern = p
}

// Received returns the accepted beats in arrival order.
func (s *Sink) Received() []Beat {
	return s.received
}

// Payloads returns the payloads of the accepted beats.
func (s *Sink) Payloads() []uint16 {
	out := make([]uint16, len(s.received))
	for i, b := range s.received {
		out[i] = b.Payload
	}

	return out
}

// Count returns the number of accepted beats.
func (s *Sink) Count() int {
	return len(s.received)
}

// Drain removes and returns the beats accepted so far.
func (s *Sink) Drain() []Beat {
	out := s.received
	s.received = nil

	return out
}

// Eval implements rtl.Module.
func (s *Sink) Eval() bool {
	return s.Input.DriveReady(s.pattern.Active(s.cycle))
}

// Commit implements rtl.Module.
func (s *Sink) Commit() {
	if s.Input.Accepted() {
		s.received = append(s.received, s.Input.Beat())
	}

	s.cycle++
}

// Reset forgets all received beats.
func (s *Sink) Reset() {
	s.received = nil
	s.cycle = 0
}

var _ rtl.Module = (*Sink)(nil)
