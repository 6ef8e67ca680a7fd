// Package packetfifo implements the capture FIFO that buffers 16-bit capture
// words in HyperRAM.
//
// The FIFO owns a ring of CapacityWords words in the external memory. Writes
// and reads are time-multiplexed onto the single memory channel in bursts,
// arbitrated by a two-state controller: while a burst is in flight (Busy) no
// other burst may start. Write bursts end when the ring would become full or
// when the producer marks the end of a packet; read bursts end when the ring
// would become empty or as soon as the consumer stops being ready. A small
// queue between the memory and the output absorbs the words that are already
// on their way when the consumer stalls.
package packetfifo

import (
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/gateware/hyperram"
	"github.com/sarchlab/hyperfifo/gateware/streamfifo"
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// DefaultOutputDepth is the depth of the queue in front of the output.
const DefaultOutputDepth = 2

// HookPosBurstStart fires when a burst is issued. The item is a Burst.
var HookPosBurstStart = &sim.HookPos{Name: "BurstStart"}

// HookPosBurstEnd fires when the memory reports the burst complete. The item
// is a Burst.
var HookPosBurstEnd = &sim.HookPos{Name: "BurstEnd"}

// Option configures a HyperRAMPacketFIFO.
type Option func(*HyperRAMPacketFIFO)

// WithOutputDepth sets the depth of the output queue. The read burst
// termination rule needs at least two entries.
func WithOutputDepth(depth int) Option {
	if depth < 2 {
		panic("packetfifo: output depth must be >= 2")
	}

	return func(f *HyperRAMPacketFIFO) {
		f.outputDepth = depth
	}
}

// HyperRAMPacketFIFO is a FIFO of 16-bit words stored in HyperRAM.
type HyperRAMPacketFIFO struct {
	sim.HookableBase

	name        string
	ram         hyperram.Controller
	bus         *hyperram.Bus
	outFIFO     *streamfifo.StreamFIFO
	outputDepth int
	capacity    uint32

	// Input accepts words to be stored. Last ends the current write burst.
	// Every packet must end with Last: a producer that stops mid-packet
	// keeps the write burst open and the memory channel held, so no stored
	// word is read back until the packet is terminated.
	Input *stream.Interface

	// Output presents stored words in the order they were written.
	Output *stream.Interface

	state          State
	writeDirection bool
	leftIdle       bool
	wordCount      uint32
	writeAddress   uint32
	readAddress    uint32

	cycle uint64
	burst Burst
	stats Stats
}

// New creates a packet FIFO storing its words in ram. The ring spans the
// whole memory. Producers must end every packet with Last, see Input.
func New(
	name string,
	ram hyperram.Controller,
	opts ...Option,
) *HyperRAMPacketFIFO {
	f := &HyperRAMPacketFIFO{
		name:        name,
		ram:         ram,
		bus:         ram.Bus(),
		outputDepth: DefaultOutputDepth,
		capacity:    ram.CapacityWords(),
		Input:       stream.NewInterface(16),
	}

	for _, opt := range opts {
		opt(f)
	}

	f.outFIFO = streamfifo.NewWithDepth(name+".Output", 16, f.outputDepth)
	f.Output = f.outFIFO.Output

	return f
}

// Name returns the instance name.
func (f *HyperRAMPacketFIFO) Name() string {
	return f.name
}

// Controller returns the memory controller the FIFO drives.
func (f *HyperRAMPacketFIFO) Controller() hyperram.Controller {
	return f.ram
}

// Capacity returns the number of words the ring can hold.
func (f *HyperRAMPacketFIFO) Capacity() uint32 {
	return f.capacity
}

// State returns the controller state.
func (f *HyperRAMPacketFIFO) State() State {
	return f.state
}

// WordCount returns the number of words stored in memory.
func (f *HyperRAMPacketFIFO) WordCount() uint32 {
	return f.wordCount
}

// WriteAddress returns the ring position of the next word to be written.
func (f *HyperRAMPacketFIFO) WriteAddress() uint32 {
	return f.writeAddress
}

// ReadAddress returns the ring position of the next word to be read.
func (f *HyperRAMPacketFIFO) ReadAddress() uint32 {
	return f.readAddress
}

// Empty reports whether no word is stored in memory.
func (f *HyperRAMPacketFIFO) Empty() bool {
	return f.wordCount == 0
}

// Full reports whether the ring is full.
func (f *HyperRAMPacketFIFO) Full() bool {
	return f.wordCount == f.capacity
}

// OutputLevel returns the number of words waiting in the output queue.
func (f *HyperRAMPacketFIFO) OutputLevel() int {
	return f.outFIFO.Level()
}

// Stats returns the accumulated statistics.
func (f *HyperRAMPacketFIFO) Stats() Stats {
	return f.stats
}

// CurrentBurst returns the burst in flight, if any.
func (f *HyperRAMPacketFIFO) CurrentBurst() (Burst, bool) {
	return f.burst, f.state == Busy
}

// Eval implements rtl.Module. It evaluates the memory controller and the
// output queue as well.
func (f *HyperRAMPacketFIFO) Eval() bool {
	changed := f.ram.Eval()

	if f.evalArbiter() {
		changed = true
	}

	if f.evalDataPath() {
		changed = true
	}

	if f.outFIFO.Eval() {
		changed = true
	}

	return changed
}

// issue decides which burst, if any, the controller starts this cycle.
func (f *HyperRAMPacketFIFO) issue() (start, write bool) {
	if f.state != Idle {
		return false, false
	}

	switch {
	case f.Input.Valid && !f.Full():
		return true, true
	case !f.Empty() && f.outFIFO.Level() == 0:
		return true, false
	default:
		return false, false
	}
}

func (f *HyperRAMPacketFIFO) evalArbiter() bool {
	b := f.bus

	start, write := f.issue()
	if f.state == Busy {
		write = f.writeDirection
	}

	address := f.readAddress
	if write {
		address = f.writeAddress
	}

	changed := rtl.Drive(&b.StartTransfer, start)
	changed = rtl.Drive(&b.PerformWrite, write) || changed
	changed = rtl.Drive(&b.Address, address) || changed
	changed = rtl.Drive(&b.FinalWord, f.finalWord(write)) || changed
	changed = rtl.Drive(&b.SinglePage, false) || changed
	changed = rtl.Drive(&b.RegisterSpace, false) || changed

	return changed
}

// finalWord tells the controller that the word moving this cycle ends the
// burst.
func (f *HyperRAMPacketFIFO) finalWord(write bool) bool {
	if write {
		return f.wordCount == f.capacity-1 || f.Input.Last
	}

	return f.wordCount == 1 || !f.Output.Ready
}

func (f *HyperRAMPacketFIFO) evalDataPath() bool {
	b := f.bus
	writing := f.state == Busy && f.writeDirection

	changed := rtl.Drive(&b.WriteData, f.Input.Payload)
	changed = rtl.Drive(&b.WriteValid, writing && f.Input.Valid) || changed
	changed = f.Input.DriveReady(b.WriteReady) || changed
	changed = f.outFIFO.Input.DriveBeat(b.ReadReady,
		stream.Beat{Payload: b.ReadData}) || changed

	return changed
}

// Commit implements rtl.Module.
func (f *HyperRAMPacketFIFO) Commit() {
	b := f.bus
	wrote := b.WordWritten()
	read := b.WordRead()

	if read && !f.outFIFO.Input.Ready {
		log.Panicf("%s: read word arrived with the output queue full", f.name)
	}

	if wrote && read {
		log.Panicf("%s: write and read words moved in the same cycle", f.name)
	}

	f.commitState()
	f.commitOccupancy(wrote, read)

	f.ram.Commit()
	f.outFIFO.Commit()

	f.cycle++
}

func (f *HyperRAMPacketFIFO) commitState() {
	b := f.bus

	switch f.state {
	case Idle:
		if f.Input.Valid && !f.Full() && !f.Empty() && f.outFIFO.Level() == 0 {
			f.stats.ReadDeferrals++
		}

		if b.StartTransfer {
			f.startBurst(b.PerformWrite, b.Address)
		}
	case Busy:
		f.stats.BusyCycles++

		if b.WordWritten() || b.WordRead() {
			f.burst.Words++
		}

		if !b.Idle {
			f.leftIdle = true
		} else if f.leftIdle {
			f.endBurst()
		}
	}
}

func (f *HyperRAMPacketFIFO) startBurst(write bool, address uint32) {
	f.state = Busy
	f.writeDirection = write
	f.leftIdle = false

	dir := Read
	if write {
		dir = Write
		f.stats.WriteBursts++
	} else {
		f.stats.ReadBursts++
	}

	f.burst = Burst{
		ID:           xid.New().String(),
		Direction:    dir,
		StartAddress: address,
		StartCycle:   f.cycle,
	}

	f.InvokeHook(sim.HookCtx{
		Domain: f,
		Pos:    HookPosBurstStart,
		Item:   f.burst,
	})
}

func (f *HyperRAMPacketFIFO) endBurst() {
	f.state = Idle
	f.burst.EndCycle = f.cycle

	f.InvokeHook(sim.HookCtx{
		Domain: f,
		Pos:    HookPosBurstEnd,
		Item:   f.burst,
	})
}

func (f *HyperRAMPacketFIFO) commitOccupancy(wrote, read bool) {
	if wrote {
		if f.wordCount == f.capacity {
			log.Panicf("%s: write into a full ring", f.name)
		}

		f.wordCount++
		f.writeAddress = (f.writeAddress + 1) % f.capacity
		f.stats.WordsIn++
	}

	if read {
		if f.wordCount == 0 {
			log.Panicf("%s: read from an empty ring", f.name)
		}

		f.wordCount--
		f.readAddress = (f.readAddress + 1) % f.capacity
		f.stats.WordsOut++
	}

	if f.wordCount > f.stats.MaxOccupancy {
		f.stats.MaxOccupancy = f.wordCount
	}
}

// Reset returns the FIFO, its memory controller and its output queue to the
// power-on state. Stored words are discarded.
func (f *HyperRAMPacketFIFO) Reset() {
	f.state = Idle
	f.writeDirection = false
	f.leftIdle = false
	f.wordCount = 0
	f.writeAddress = 0
	f.readAddress = 0
	f.cycle = 0
	f.burst = Burst{}
	f.stats = Stats{}

	f.ram.Reset()
	f.outFIFO.Reset()
}

var _ rtl.Module = (*HyperRAMPacketFIFO)(nil)
