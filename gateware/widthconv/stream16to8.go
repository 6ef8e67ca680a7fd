// Package widthconv serializes 16-bit capture words into the byte stream
// consumed by the USB transmit path.
package widthconv

import (
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// Stream16to8 splits every 16-bit input word into two output bytes.
//
// The converter only advances when its output is not stalled, that is when
// the output is empty or its current byte is being accepted. Backpressure
// therefore propagates to the input without losing or repeating a byte.
type Stream16to8 struct {
	name     string
	msbFirst bool

	Input  *stream.Interface
	Output *stream.Interface

	// Registered state.
	oddByte  bool
	shift    uint16
	outValid bool
	wordLast bool
}

// New creates a converter. With msbFirst set the high byte of each word is
// emitted first.
func New(name string, msbFirst bool) *Stream16to8 {
	return &Stream16to8{
		name:     name,
		msbFirst: msbFirst,
		Input:    stream.NewInterface(16),
		Output:   stream.NewInterface(8),
	}
}

// Name returns the instance name.
func (c *Stream16to8) Name() string {
	return c.name
}

// MSBFirst reports the configured byte order.
func (c *Stream16to8) MSBFirst() bool {
	return c.msbFirst
}

func (c *Stream16to8) notStalled() bool {
	return c.Output.Ready || !c.outValid
}

// Eval implements rtl.Module.
func (c *Stream16to8) Eval() bool {
	changed := c.Output.DriveBeat(c.outValid, stream.Beat{
		Payload: c.shift & 0xFF,
		Last:    c.wordLast && !c.oddByte,
	})

	if c.Input.DriveReady(c.notStalled() && !c.oddByte) {
		changed = true
	}

	return changed
}

// Commit implements rtl.Module.
func (c *Stream16to8) Commit() {
	if !c.notStalled() {
		return
	}

	if c.oddByte {
		c.shift >>= 8
		c.outValid = true
		c.oddByte = false

		return
	}

	c.outValid = c.Input.Valid
	if c.Input.Valid {
		c.shift = c.order(c.Input.Payload)
		c.wordLast = c.Input.Last
		c.oddByte = true
	}
}

// order arranges the word so that the byte to be sent first sits in the low
// half of the shift register.
func (c *Stream16to8) order(word uint16) uint16 {
	if c.msbFirst {
		return word>>8 | word<<8
	}

	return word
}

// Reset implements rtl.Module.
func (c *Stream16to8) Reset() {
	c.oddByte = false
	c.shift = 0
	c.outValid = false
	c.wordLast = false
}

var _ rtl.Module = (*Stream16to8)(nil)
