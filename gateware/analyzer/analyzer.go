package analyzer

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// ErrNotDrained is returned when the captured data did not reach the host
// within the cycle limit.
var ErrNotDrained = errors.New("capture not drained")

// ErrUnterminated is returned when captured words do not end with Last. The
// packet FIFO would hold its write burst open waiting for the rest of the
// packet.
var ErrUnterminated = errors.New("capture does not end with Last")

// Analyzer drives a capture buffer between a capture source and a host sink
// in a single clock domain.
type Analyzer struct {
	Buffer *Buffer

	source  *stream.Source
	sink    *stream.Sink
	checker *stream.Checker
	domain  *rtl.Domain
}

// NewAnalyzer creates an analyzer around buf. The capture side presents words
// following valid and the host accepts bytes following ready.
func NewAnalyzer(buf *Buffer, valid, ready stream.Pattern) *Analyzer {
	a := &Analyzer{
		Buffer: buf,
		source: stream.NewSource(buf.Name()+".Capture", 16, valid),
		sink:   stream.NewSink(buf.Name()+".Host", 8, ready),
	}

	a.source.Output = buf.Input
	a.sink.Input = buf.Output
	a.checker = stream.NewChecker(buf.Name()+".Output", buf.Output)
	a.domain = rtl.NewDomain(buf.Name(), a.source, buf, a.sink, a.checker)

	return a
}

// Domain returns the clock domain of the analyzer.
func (a *Analyzer) Domain() *rtl.Domain {
	return a.domain
}

// Capture queues words on the capture side. The final beat must be marked
// Last; otherwise nothing is queued.
func (a *Analyzer) Capture(beats ...stream.Beat) error {
	if len(beats) == 0 {
		return nil
	}

	if !beats[len(beats)-1].Last {
		return fmt.Errorf("%w: %d words", ErrUnterminated, len(beats))
	}

	a.source.Push(beats...)

	return nil
}

// SetHostPattern changes when the host accepts bytes.
func (a *Analyzer) SetHostPattern(p stream.Pattern) {
	a.sink.SetPattern(p)
}

// Tick executes one clock cycle.
func (a *Analyzer) Tick() {
	a.domain.Tick()
}

// Drained reports whether every queued word has been delivered to the host.
func (a *Analyzer) Drained() bool {
	return a.source.Done() && uint64(a.sink.Count()) == 2*a.source.Sent()
}

// RunCycles executes the analyzer for the specified number of cycles.
// Returns true if data is still in flight.
func (a *Analyzer) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles; i++ {
		if a.Drained() {
			return false
		}

		a.Tick()
	}

	return !a.Drained()
}

// RunUntilDrained ticks until all data reached the host or limit cycles
// elapsed.
func (a *Analyzer) RunUntilDrained(limit uint64) error {
	if a.RunCycles(limit) {
		return fmt.Errorf("%w after %d cycles: %d of %d bytes delivered",
			ErrNotDrained, limit, a.sink.Count(), 2*a.source.Sent())
	}

	return nil
}

// Simulate runs the analyzer on an akita engine at freq until it drains or
// limit cycles elapsed. It returns the simulated time.
func (a *Analyzer) Simulate(freq sim.Freq, limit uint64) (sim.VTimeInSec, error) {
	s := rtl.NewSimulation("Analyzer", a.domain, freq,
		rtl.WithMaxCycles(a.domain.Cycle()+limit),
		rtl.WithDoneFunc(a.Drained),
	)

	if err := s.Run(); err != nil {
		return s.SimulatedTime(), err
	}

	if !a.Drained() {
		return s.SimulatedTime(), fmt.Errorf("%w after %d cycles",
			ErrNotDrained, limit)
	}

	return s.SimulatedTime(), nil
}

// Bytes returns the bytes delivered to the host so far.
func (a *Analyzer) Bytes() []byte {
	payloads := a.sink.Payloads()

	data := make([]byte, len(payloads))
	for i, p := range payloads {
		data[i] = byte(p)
	}

	return data
}

// Received returns the delivered beats, including their Last flags.
func (a *Analyzer) Received() []stream.Beat {
	return a.sink.Received()
}

// Violations returns the handshake violations observed on the output.
func (a *Analyzer) Violations() []stream.Violation {
	return a.checker.Violations()
}

// Stats returns the statistics of the run.
func (a *Analyzer) Stats() Stats {
	s := a.Buffer.Stats()
	s.Cycles = a.domain.Cycle()

	return s
}

// Reset returns every module to its power-on state and drops queued words.
func (a *Analyzer) Reset() {
	a.domain.Reset()
}
