package hyperram

import (
	"encoding/binary"
	"log"
	"math/rand"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/hyperfifo/rtl"
)

type psramState int

const (
	stateIdle psramState = iota
	stateLatency
	stateBurst
	stateRecovery
)

func (s psramState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateLatency:
		return "latency"
	case stateBurst:
		return "burst"
	case stateRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// Stats counts the work done by the controller.
type Stats struct {
	WriteBursts  uint64
	ReadBursts   uint64
	WordsWritten uint64
	WordsRead    uint64
	StallCycles  uint64
	BusyCycles   uint64
}

// PSRAM is a behavioral model of the HyperRAM controller and device. It
// accepts one burst at a time, waits a fixed initial latency, then moves at
// most one word per cycle. Word slots can be skipped at random to mimic the
// device's refresh collisions, so requesters must not assume a fixed rate.
type PSRAM struct {
	name             string
	bus              *Bus
	capacityWords    uint32
	initialLatency   int
	recoveryCycles   int
	stallProbability float64
	seed             int64
	storage          *mem.Storage
	rng              *rand.Rand

	state     psramState
	write     bool
	address   uint32
	countdown int
	stall     bool
	stats     Stats
}

// Name returns the instance name.
func (p *PSRAM) Name() string {
	return p.name
}

// Bus returns the signals shared with the requester.
func (p *PSRAM) Bus() *Bus {
	return p.bus
}

// CapacityWords returns the number of words in the device.
func (p *PSRAM) CapacityWords() uint32 {
	return p.capacityWords
}

// Stats returns the accumulated statistics.
func (p *PSRAM) Stats() Stats {
	return p.stats
}

// Peek reads a word directly from the storage.
func (p *PSRAM) Peek(address uint32) uint16 {
	data, err := p.storage.Read(uint64(address%p.capacityWords)*2, 2)
	if err != nil {
		log.Panic(err)
	}

	return binary.LittleEndian.Uint16(data)
}

func (p *PSRAM) poke(address uint32, value uint16) {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, value)

	err := p.storage.Write(uint64(address)*2, data)
	if err != nil {
		log.Panic(err)
	}
}

// Eval drives the controller side of the bus.
func (p *PSRAM) Eval() bool {
	b := p.bus
	streaming := p.state == stateBurst && !p.stall

	changed := rtl.Drive(&b.Idle, p.state == stateIdle)

	if rtl.Drive(&b.WriteReady, streaming && p.write) {
		changed = true
	}

	readReady := streaming && !p.write
	if rtl.Drive(&b.ReadReady, readReady) {
		changed = true
	}

	data := uint16(0)
	if readReady {
		data = p.Peek(p.address)
	}

	if rtl.Drive(&b.ReadData, data) {
		changed = true
	}

	return changed
}

// Commit samples the requester side of the bus.
func (p *PSRAM) Commit() {
	switch p.state {
	case stateIdle:
		p.commitIdle()
	case stateLatency:
		p.stats.BusyCycles++
		p.countdown--
		if p.countdown == 0 {
			p.state = stateBurst
			p.stall = p.nextStall()
		}
	case stateBurst:
		p.stats.BusyCycles++
		p.commitBurst()
	case stateRecovery:
		p.stats.BusyCycles++
		p.countdown--
		if p.countdown <= 0 {
			p.state = stateIdle
		}
	}
}

func (p *PSRAM) commitIdle() {
	b := p.bus
	if !b.StartTransfer {
		return
	}

	if b.RegisterSpace || b.SinglePage {
		log.Panicf("%s: register space and wrapped bursts are not modelled",
			p.name)
	}

	p.write = b.PerformWrite
	p.address = b.Address % p.capacityWords
	p.state = stateLatency
	p.countdown = p.initialLatency

	if p.write {
		p.stats.WriteBursts++
	} else {
		p.stats.ReadBursts++
	}
}

func (p *PSRAM) commitBurst() {
	b := p.bus

	if p.stall {
		p.stats.StallCycles++
	}

	moved := false

	switch {
	case p.write && b.WordWritten():
		p.poke(p.address, b.WriteData)
		p.stats.WordsWritten++
		moved = true
	case !p.write && b.WordRead():
		p.stats.WordsRead++
		moved = true
	}

	if moved {
		p.address = (p.address + 1) % p.capacityWords

		if b.FinalWord {
			p.finishBurst()
			return
		}
	}

	p.stall = p.nextStall()
}

func (p *PSRAM) finishBurst() {
	p.stall = false

	if p.recoveryCycles > 0 {
		p.state = stateRecovery
		p.countdown = p.recoveryCycles

		return
	}

	p.state = stateIdle
}

func (p *PSRAM) nextStall() bool {
	if p.stallProbability <= 0 {
		return false
	}

	return p.rng.Float64() < p.stallProbability
}

// Reset returns the controller to idle. Memory contents are kept.
func (p *PSRAM) Reset() {
	p.rng = rand.New(rand.NewSource(p.seed))
	p.state = stateIdle
	p.write = false
	p.address = 0
	p.countdown = 0
	p.stall = false
	p.stats = Stats{}
}

var _ Controller = (*PSRAM)(nil)
