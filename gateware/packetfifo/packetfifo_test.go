package packetfifo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/gateware/hyperram"
	"github.com/sarchlab/hyperfifo/gateware/packetfifo"
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// sample is the settled view of one cycle, taken right before the clock edge.
type sample struct {
	state       packetfifo.State
	wordCount   uint32
	outputLevel int
	bus         hyperram.Bus
	inBeat      stream.Beat
	outReady    bool
}

type observer struct {
	fifo    *packetfifo.HyperRAMPacketFIFO
	samples []sample
}

func (o *observer) Func(ctx sim.HookCtx) {
	if ctx.Pos != rtl.HookPosCycle {
		return
	}

	o.samples = append(o.samples, sample{
		state:       o.fifo.State(),
		wordCount:   o.fifo.WordCount(),
		outputLevel: o.fifo.OutputLevel(),
		bus:         *o.fifo.Controller().Bus(),
		inBeat:      o.fifo.Input.Beat(),
		outReady:    o.fifo.Output.Ready,
	})
}

type burstRecorder struct {
	started []packetfifo.Burst
	ended   []packetfifo.Burst
}

func (r *burstRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case packetfifo.HookPosBurstStart:
		r.started = append(r.started, ctx.Item.(packetfifo.Burst))
	case packetfifo.HookPosBurstEnd:
		r.ended = append(r.ended, ctx.Item.(packetfifo.Burst))
	}
}

type bench struct {
	ram    *hyperram.PSRAM
	fifo   *packetfifo.HyperRAMPacketFIFO
	src    *stream.Source
	sink   *stream.Sink
	obs    *observer
	bursts *burstRecorder
	inChk  *stream.Checker
	outChk *stream.Checker
	domain *rtl.Domain
}

func newBench(b hyperram.Builder, valid, ready stream.Pattern) *bench {
	t := &bench{}
	t.ram = b.Build("RAM")
	t.fifo = packetfifo.New("PacketFIFO", t.ram)
	t.src = stream.NewSource("Src", 16, valid)
	t.src.Output = t.fifo.Input
	t.sink = stream.NewSink("Sink", 16, ready)
	t.sink.Input = t.fifo.Output
	t.inChk = stream.NewChecker("In", t.fifo.Input)
	t.outChk = stream.NewChecker("Out", t.fifo.Output)
	t.domain = rtl.NewDomain("Test", t.src, t.fifo, t.sink, t.inChk, t.outChk)

	t.obs = &observer{fifo: t.fifo}
	t.domain.AcceptHook(t.obs)

	t.bursts = &burstRecorder{}
	t.fifo.AcceptHook(t.bursts)

	return t
}

func (t *bench) runUntil(done func() bool, limit int) {
	for i := 0; i < limit && !done(); i++ {
		t.domain.Tick()
	}
}

func ramWords(n uint32) hyperram.Builder {
	return hyperram.MakeBuilder().WithCapacityWords(n)
}

func sequence(n int) []uint16 {
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(i*0x3D + 0x100)
	}

	return words
}

var _ = Describe("HyperRAMPacketFIFO", func() {
	It("should span the whole HyperRAM by default", func() {
		ram := hyperram.MakeBuilder().Build("RAM")
		fifo := packetfifo.New("PacketFIFO", ram)

		Expect(fifo.Capacity()).To(Equal(uint32(1 << 22)))
		Expect(fifo.State()).To(Equal(packetfifo.Idle))
		Expect(fifo.Empty()).To(BeTrue())
	})

	It("should reject an output queue too shallow for the read burst rule", func() {
		Expect(func() { packetfifo.WithOutputDepth(1) }).To(Panic())
	})

	It("should return words in the order they were written", func() {
		t := newBench(ramWords(256), stream.Always, stream.Always)
		words := sequence(100)
		t.src.PushWords(words...)

		t.runUntil(func() bool { return t.sink.Count() == 100 }, 20000)

		Expect(t.sink.Payloads()).To(Equal(words))
		Expect(t.fifo.Empty()).To(BeTrue())
		Expect(t.fifo.Stats().WordsIn).To(Equal(uint64(100)))
		Expect(t.fifo.Stats().WordsOut).To(Equal(uint64(100)))
	})

	It("should be lossless under random traffic and memory stalls", func() {
		b := ramWords(64).WithStallProbability(0.2).WithSeed(77)
		t := newBench(b, stream.Random(21, 0.8), stream.Random(22, 0.5))
		words := sequence(1000)
		for i := 0; i < len(words); i += 37 {
			end := i + 37
			if end > len(words) {
				end = len(words)
			}
			t.src.PushWords(words[i:end]...)
		}

		t.runUntil(func() bool { return t.sink.Count() == 1000 }, 200000)

		Expect(t.sink.Payloads()).To(Equal(words))
		Expect(t.inChk.Violations()).To(BeEmpty())
		Expect(t.outChk.Violations()).To(BeEmpty())
	})

	It("should wrap its pointers around the ring", func() {
		t := newBench(ramWords(16), stream.Always, stream.Random(5, 0.3))
		words := sequence(200)
		t.src.PushWords(words...)

		t.runUntil(func() bool { return t.sink.Count() == 200 }, 50000)

		Expect(t.sink.Payloads()).To(Equal(words))
		Expect(t.fifo.WriteAddress()).To(Equal(uint32(200 % 16)))
		Expect(t.fifo.ReadAddress()).To(Equal(uint32(200 % 16)))
	})

	Context("when the consumer stalls", func() {
		var t *bench

		BeforeEach(func() {
			t = newBench(ramWords(16), stream.Always, stream.Never)
			t.src.PushWords(sequence(40)...)
			t.domain.RunCycles(400)
		})

		It("should fill the ring and stop accepting input", func() {
			Expect(t.fifo.Full()).To(BeTrue())
			Expect(t.fifo.WordCount()).To(Equal(uint32(16)))
			Expect(t.fifo.State()).To(Equal(packetfifo.Idle))
			Expect(t.fifo.Input.Ready).To(BeFalse())
			Expect(t.fifo.OutputLevel()).To(BeNumerically("<=", 2))
		})

		It("should keep the occupancy within bounds and guard burst issue", func() {
			for _, s := range t.obs.samples {
				Expect(s.wordCount).To(BeNumerically("<=", 16))

				if s.bus.StartTransfer && s.bus.PerformWrite {
					Expect(s.wordCount).To(BeNumerically("<", 16))
				}

				if s.bus.StartTransfer && !s.bus.PerformWrite {
					Expect(s.wordCount).To(BeNumerically(">", 0))
				}
			}
		})

		It("should deliver everything once the consumer resumes", func() {
			t.sink.SetPattern(stream.Always)
			t.runUntil(func() bool { return t.sink.Count() == 40 }, 20000)

			Expect(t.sink.Payloads()).To(Equal(sequence(40)))
		})
	})

	It("should end a write burst on the word marked last", func() {
		t := newBench(ramWords(64), stream.Always, stream.Never)
		t.src.PushWords(1, 2, 3)
		t.src.PushWords(4, 5, 6, 7, 8)

		t.domain.RunCycles(100)

		finals := []uint16{}
		written := []uint16{}
		for _, s := range t.obs.samples {
			if s.bus.WordWritten() {
				written = append(written, s.inBeat.Payload)
				if s.bus.FinalWord {
					finals = append(finals, s.inBeat.Payload)
				}
			}
		}

		writes := []packetfifo.Burst{}
		for _, b := range t.bursts.ended {
			if b.Direction == packetfifo.Write {
				writes = append(writes, b)
			}
		}

		Expect(written).To(Equal([]uint16{1, 2, 3, 4, 5, 6, 7, 8}))
		Expect(finals).To(Equal([]uint16{3, 8}))
		Expect(writes).To(HaveLen(2))
		Expect(writes[0].Words).To(Equal(uint64(3)))
		Expect(writes[1].StartAddress).To(Equal(uint32(3)))
		Expect(writes[1].Words).To(Equal(uint64(5)))
	})

	It("should hold the write burst open until the packet is terminated", func() {
		t := newBench(ramWords(64), stream.Always, stream.Always)
		t.src.Push(stream.Beat{Payload: 1}, stream.Beat{Payload: 2},
			stream.Beat{Payload: 3})

		t.domain.RunCycles(2000)

		Expect(t.fifo.State()).To(Equal(packetfifo.Busy))
		Expect(t.fifo.WordCount()).To(Equal(uint32(3)))
		Expect(t.sink.Count()).To(BeZero())
		Expect(t.bursts.ended).To(BeEmpty())

		t.src.Push(stream.Beat{Payload: 4, Last: true})
		t.runUntil(func() bool { return t.sink.Count() == 4 }, 2000)

		Expect(t.sink.Payloads()).To(Equal([]uint16{1, 2, 3, 4}))
		Expect(t.bursts.ended[0].Direction).To(Equal(packetfifo.Write))
		Expect(t.bursts.ended[0].Words).To(Equal(uint64(4)))
	})

	It("should end a write burst when the ring becomes full", func() {
		t := newBench(ramWords(8), stream.Always, stream.Never)
		t.src.PushWords(sequence(20)...)

		t.domain.RunCycles(200)

		fullFinals := 0
		for _, s := range t.obs.samples {
			if s.bus.WordWritten() && s.bus.FinalWord {
				Expect(s.wordCount).To(Equal(uint32(7)))
				fullFinals++
			}
		}

		// The first burst fills the ring. A one-word read then makes room for
		// a one-word refill.
		Expect(fullFinals).To(Equal(2))
		Expect(t.fifo.Full()).To(BeTrue())
	})

	It("should end a read burst as soon as the consumer is not ready", func() {
		t := newBench(ramWords(64), stream.Always, stream.Random(8, 0.4))
		t.src.PushWords(sequence(60)...)

		t.runUntil(func() bool { return t.sink.Count() == 60 }, 50000)

		for _, s := range t.obs.samples {
			if s.bus.WordRead() && !s.outReady {
				Expect(s.bus.FinalWord).To(BeTrue())
			}

			if s.bus.WordRead() && s.wordCount == 1 {
				Expect(s.bus.FinalWord).To(BeTrue())
			}

			Expect(s.outputLevel).To(BeNumerically("<=", 2))
		}
	})

	It("should only start a read burst when the output queue is empty", func() {
		t := newBench(ramWords(64), stream.Always, stream.Random(9, 0.5))
		t.src.PushWords(sequence(50)...)

		t.runUntil(func() bool { return t.sink.Count() == 50 }, 50000)

		for _, s := range t.obs.samples {
			if s.bus.StartTransfer && !s.bus.PerformWrite {
				Expect(s.outputLevel).To(Equal(0))
			}
		}
	})

	It("should never issue a burst while busy and only leave busy on idle", func() {
		b := ramWords(32).WithStallProbability(0.3)
		t := newBench(b, stream.Random(1, 0.7), stream.Random(2, 0.6))
		t.src.PushWords(sequence(300)...)

		t.runUntil(func() bool { return t.sink.Count() == 300 }, 100000)

		samples := t.obs.samples
		for i, s := range samples {
			if s.state == packetfifo.Busy {
				Expect(s.bus.StartTransfer).To(BeFalse())
			}

			if i > 0 && samples[i-1].state == packetfifo.Busy && s.state == packetfifo.Idle {
				Expect(samples[i-1].bus.Idle).To(BeTrue())
			}
		}

		Expect(t.bursts.started).To(HaveLen(int(t.fifo.Stats().WriteBursts + t.fifo.Stats().ReadBursts)))
	})

	It("should prefer writes over reads while input keeps arriving", func() {
		t := newBench(ramWords(128), stream.Always, stream.Always)
		t.src.PushWords(1, 2)
		t.src.PushWords(3, 4)
		t.src.PushWords(5, 6)

		t.runUntil(func() bool { return t.sink.Count() == 6 }, 1000)

		Expect(t.fifo.Stats().ReadDeferrals).To(BeNumerically(">", 0))
		Expect(t.bursts.started[0].Direction).To(Equal(packetfifo.Write))
		Expect(t.bursts.started[1].Direction).To(Equal(packetfifo.Write))
	})

	It("should reset pointers, occupancy and the memory controller", func() {
		t := newBench(ramWords(32), stream.Always, stream.Never)
		t.src.PushWords(sequence(10)...)
		t.domain.RunCycles(100)
		Expect(t.fifo.WordCount() + uint32(t.fifo.OutputLevel())).
			To(Equal(uint32(10)))

		t.fifo.Reset()

		Expect(t.fifo.WordCount()).To(Equal(uint32(0)))
		Expect(t.fifo.WriteAddress()).To(Equal(uint32(0)))
		Expect(t.fifo.OutputLevel()).To(Equal(0))
		Expect(t.fifo.Stats()).To(Equal(packetfifo.Stats{}))
		Expect(t.ram.Stats()).To(Equal(hyperram.Stats{}))
	})
})
