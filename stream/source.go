package stream

import "github.com/sarchlab/hyperfifo/rtl"

// Source is a testbench producer. It presents queued beats on its output,
// asserting Valid when its pattern allows and holding each beat until the
// consumer accepts it.
type Source struct {
	name    string
	Output  *Interface
	pattern Pattern

	pending    []Beat
	presenting bool
	cycle      uint64
	sent       uint64
}

// NewSource creates a producer driving a stream of the given width.
func NewSource(name string, width int, pattern Pattern) *Source {
	if pattern == nil {
		pattern = Always
	}

	return &Source{
		name:    name,
		Output:  NewInterface(width),
		pattern: pattern,
	}
}

// Name returns the instance name.
func (s *Source) Name() string {
	return s.name
}

// Push queues beats for transmission.
func (s *Source) Push(beats ...Beat) {
	s.pending = append(s.pending, beats...)
}

// PushWords queues payload words, marking the final one as Last.
func (s *Source) PushWords(words ...uint16) {
	for i, w := range words {
		s.pending = append(s.pending, Beat{Payload: w, Last: i == len(words)-1})
	}
}

// Pending returns the number of beats not yet accepted.
func (s *Source) Pending() int {
	return len(s.pending)
}

// Sent returns the number of beats accepted by the consumer.
func (s *Source) Sent() uint64 {
	return s.sent
}

// Done reports whether every queued beat has been accepted.
func (s *Source) Done() bool {
	return len(s.pending) == 0
}

// Eval implements rtl.Module.
func (s *Source) Eval() bool {
	if len(s.pending) == 0 {
		return s.Output.DriveBeat(false, Beat{})
	}

	valid := s.presenting || s.pattern.Active(s.cycle)

	return s.Output.DriveBeat(valid, s.pending[0])
}

// Commit implements rtl.Module.
func (s *Source) Commit() {
	switch {
	case s.Output.Accepted():
		s.pending = s.pending[1:]
		s.presenting = false
		s.sent++
	case s.Output.Valid:
		s.presenting = true
	}

	s.cycle++
}

// Reset drops all queued beats.
func (s *Source) Reset() {
	s.pending = nil
	s.presenting = false
	s.cycle = 0
	s.sent = 0
}

var _ rtl.Module = (*Source)(nil)
