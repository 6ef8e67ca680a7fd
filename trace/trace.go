// Package trace records the bursts of a packet FIFO.
package trace

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/gateware/packetfifo"
	"github.com/sarchlab/hyperfifo/log"
)

// BurstRecord is one completed memory burst.
type BurstRecord struct {
	ID           string
	Where        string
	Direction    string
	StartAddress uint32
	StartCycle   uint64
	EndCycle     uint64
	Words        uint64
}

// NewBurstRecord converts a burst reported by the FIFO named where.
func NewBurstRecord(where string, b packetfifo.Burst) BurstRecord {
	return BurstRecord{
		ID:           b.ID,
		Where:        where,
		Direction:    b.Direction.String(),
		StartAddress: b.StartAddress,
		StartCycle:   b.StartCycle,
		EndCycle:     b.EndCycle,
		Words:        b.Words,
	}
}

// Writer stores burst records.
type Writer interface {
	Init() error
	Write(r BurstRecord)
	Flush() error
}

type named interface {
	Name() string
}

func where(ctx sim.HookCtx) string {
	if n, ok := ctx.Domain.(named); ok {
		return n.Name()
	}

	return ""
}

// BurstTracer is a hook that forwards every completed burst to a Writer.
type BurstTracer struct {
	writer Writer
	count  uint64
}

// NewBurstTracer creates a tracer writing to w.
func NewBurstTracer(w Writer) *BurstTracer {
	return &BurstTracer{writer: w}
}

// Func implements sim.Hook.
func (t *BurstTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != packetfifo.HookPosBurstEnd {
		return
	}

	b, ok := ctx.Item.(packetfifo.Burst)
	if !ok {
		return
	}

	t.writer.Write(NewBurstRecord(where(ctx), b))
	t.count++
}

// Count returns the number of bursts traced.
func (t *BurstTracer) Count() uint64 {
	return t.count
}

// LogTracer prints burst boundaries at debug level.
type LogTracer struct{}

// Func implements sim.Hook.
func (LogTracer) Func(ctx sim.HookCtx) {
	if !log.Enabled(log.DebugLevel) {
		return
	}

	b, ok := ctx.Item.(packetfifo.Burst)
	if !ok {
		return
	}

	switch ctx.Pos {
	case packetfifo.HookPosBurstStart:
		log.Debug("%s: %s burst %s at 0x%06x, cycle %d",
			where(ctx), b.Direction, b.ID, b.StartAddress, b.StartCycle)
	case packetfifo.HookPosBurstEnd:
		log.Debug("%s: %s burst %s done, %d words in %d cycles",
			where(ctx), b.Direction, b.ID, b.Words, b.EndCycle-b.StartCycle)
	}
}
