// Package skid provides a single-entry elastic buffer for stream boundaries
// where the consumer's ready signal arrives one cycle late.
package skid

import (
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// Option configures a SkidBuffer.
type Option func(*SkidBuffer)

// WithRegisteredOutput adds an output register so that the output signals
// are driven from flops instead of passing the input through.
func WithRegisteredOutput() Option {
	return func(b *SkidBuffer) {
		b.registered = true
	}
}

// SkidBuffer decouples the producer's valid from the consumer's ready.
//
// Its input ready depends only on whether the internal slot is occupied, so
// the producer never sees a combinational path from the consumer's ready.
// When a beat is accepted from the producer in a cycle where the consumer
// refuses the current output, the beat is parked in the slot.
type SkidBuffer struct {
	name       string
	registered bool

	Input  *stream.Interface
	Output *stream.Interface

	stored     bool
	storedBeat stream.Beat

	// Output register, only used in registered mode.
	outValid bool
	outBeat  stream.Beat
}

// New creates a skid buffer carrying width-bit payloads.
func New(name string, width int, opts ...Option) *SkidBuffer {
	b := &SkidBuffer{
		name:   name,
		Input:  stream.NewInterface(width),
		Output: stream.NewInterface(width),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Name returns the instance name.
func (b *SkidBuffer) Name() string {
	return b.name
}

// Stored reports whether the internal slot holds a beat.
func (b *SkidBuffer) Stored() bool {
	return b.stored
}

// Registered reports whether the output is registered.
func (b *SkidBuffer) Registered() bool {
	return b.registered
}

// Eval implements rtl.Module.
func (b *SkidBuffer) Eval() bool {
	changed := b.Input.DriveReady(!b.stored)

	var (
		valid bool
		beat  stream.Beat
	)

	switch {
	case b.registered:
		valid, beat = b.outValid, b.outBeat
	case b.stored:
		valid, beat = true, b.storedBeat
	default:
		valid, beat = b.Input.Valid, b.Input.Beat()
	}

	if b.Output.DriveBeat(valid, beat) {
		changed = true
	}

	return changed
}

// Commit implements rtl.Module.
func (b *SkidBuffer) Commit() {
	if b.registered {
		b.commitRegistered()
		return
	}

	inAccepted := b.Input.Accepted()

	switch {
	case b.Output.Accepted():
		b.stored = false
	case inAccepted && b.Output.Valid:
		b.stored = true
		b.storedBeat = b.Input.Beat()
	}
}

func (b *SkidBuffer) commitRegistered() {
	inAccepted := b.Input.Accepted()

	if b.outValid && !b.Output.Ready {
		if inAccepted {
			b.stored = true
			b.storedBeat = b.Input.Beat()
		}

		return
	}

	switch {
	case b.stored:
		b.outValid, b.outBeat = true, b.storedBeat
		b.stored = false
	case inAccepted:
		b.outValid, b.outBeat = true, b.Input.Beat()
	default:
		b.outValid = false
	}
}

// Reset implements rtl.Module.
func (b *SkidBuffer) Reset() {
	b.stored = false
	b.storedBeat = stream.Beat{}
	b.outValid = false
	b.outBeat = stream.Beat{}
}

var _ rtl.Module = (*SkidBuffer)(nil)
