// Package analyzer assembles the capture buffer of the USB analyzer: the
// HyperRAM packet FIFO, an output skid buffer and the 16 to 8 bit converter
// that feeds the USB transmit path.
package analyzer

import (
	"github.com/sarchlab/hyperfifo/gateware/hyperram"
	"github.com/sarchlab/hyperfifo/gateware/packetfifo"
	"github.com/sarchlab/hyperfifo/gateware/skid"
	"github.com/sarchlab/hyperfifo/gateware/widthconv"
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// Stats holds the counters of the capture buffer.
type Stats struct {
	packetfifo.Stats

	// BytesOut is the number of bytes accepted from the output.
	BytesOut uint64

	// Cycles is the number of clock cycles simulated. Only an Analyzer
	// knows it.
	Cycles uint64
}

// BufferOption configures a Buffer.
type BufferOption func(*bufferConfig)

type bufferConfig struct {
	msbFirst    bool
	registered  bool
	fifoOptions []packetfifo.Option
}

// WithMSBFirst selects the byte order of the output. The capture format is
// big-endian, which is the default.
func WithMSBFirst(msbFirst bool) BufferOption {
	return func(c *bufferConfig) {
		c.msbFirst = msbFirst
	}
}

// WithRegisteredSkid gives the skid buffer a registered output.
func WithRegisteredSkid() BufferOption {
	return func(c *bufferConfig) {
		c.registered = true
	}
}

// WithFIFOOptions passes options on to the packet FIFO.
func WithFIFOOptions(opts ...packetfifo.Option) BufferOption {
	return func(c *bufferConfig) {
		c.fifoOptions = append(c.fifoOptions, opts...)
	}
}

// Buffer is the capture data path from the 16-bit capture words to the 8-bit
// stream.
type Buffer struct {
	name string

	FIFO      *packetfifo.HyperRAMPacketFIFO
	Skid      *skid.SkidBuffer
	Converter *widthconv.Stream16to8

	// Input accepts capture words. Last marks the final word of a record.
	Input *stream.Interface

	// Output presents the captured bytes.
	Output *stream.Interface

	bytesOut uint64
}

// NewBuffer creates a capture buffer storing its words in ram.
func NewBuffer(
	name string,
	ram hyperram.Controller,
	opts ...BufferOption,
) *Buffer {
	cfg := bufferConfig{msbFirst: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var skidOpts []skid.Option
	if cfg.registered {
		skidOpts = append(skidOpts, skid.WithRegisteredOutput())
	}

	b := &Buffer{
		name:      name,
		FIFO:      packetfifo.New(name+".FIFO", ram, cfg.fifoOptions...),
		Skid:      skid.New(name+".Skid", 16, skidOpts...),
		Converter: widthconv.New(name+".Converter", cfg.msbFirst),
	}

	b.Skid.Input = b.FIFO.Output
	b.Converter.Input = b.Skid.Output
	b.Input = b.FIFO.Input
	b.Output = b.Converter.Output

	return b
}

// Name returns the instance name.
func (b *Buffer) Name() string {
	return b.name
}

// Modules returns the stages of the data path, from input to output.
func (b *Buffer) Modules() []rtl.Module {
	return []rtl.Module{b.FIFO, b.Skid, b.Converter}
}

// Stats returns the accumulated statistics.
func (b *Buffer) Stats() Stats {
	return Stats{
		Stats:    b.FIFO.Stats(),
		BytesOut: b.bytesOut,
	}
}

// Eval implements rtl.Module.
func (b *Buffer) Eval() bool {
	changed := false
	for _, m := range b.Modules() {
		if m.Eval() {
			changed = true
		}
	}

	return changed
}

// Commit implements rtl.Module.
func (b *Buffer) Commit() {
	if b.Output.Accepted() {
		b.bytesOut++
	}

	for _, m := range b.Modules() {
		m.Commit()
	}
}

// Reset implements rtl.Module.
func (b *Buffer) Reset() {
	b.bytesOut = 0

	for _, m := range b.Modules() {
		m.Reset()
	}
}

var _ rtl.Module = (*Buffer)(nil)
